package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wrtcli/src/wrtapi"
)

func newRebootCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reboot <device>",
		Short: "Reboot a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := getDevice(cmd, args[0])
			if err != nil {
				return err
			}
			client, err := wrtapi.ForProtocol(d.Protocol)
			if err != nil {
				return err
			}
			sess, err := client.Login(d)
			if err != nil {
				return err
			}
			if err := client.Reboot(d, sess); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Rebooting device %q...\n", d.Name)
			return nil
		},
	}
	cmd.Flags().String("protocol", "", "Override the device's protocol tag: ubus|luci")
	return cmd
}
