package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wrtcli/src/wrtapi"
)

func newAddCmd(stdout io.Writer) *cobra.Command {
	var (
		ip       string
		user     string
		password string
		protocol string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an OpenWrt device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := wrtapi.ParseProtocol(protocol)
			if err != nil {
				return err
			}
			cfg, err := getManager(cmd)
			if err != nil {
				return err
			}
			d := wrtapi.Device{
				Name:     args[0],
				Addr:     ip,
				User:     user,
				Password: password,
				Protocol: proto,
			}
			if err := cfg.AddDevice(d); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Device %q added\n", d.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "IP address of the device")
	cmd.Flags().StringVar(&user, "user", "", "Username for authentication")
	cmd.Flags().StringVar(&password, "password", "", "Password for authentication")
	cmd.Flags().StringVar(&protocol, "protocol", string(wrtapi.ProtocolUbus), "Management protocol: ubus|luci")
	cmd.MarkFlagRequired("ip")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newListCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getManager(cmd)
			if err != nil {
				return err
			}
			devices, err := cfg.ListDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(stdout, "No devices registered. Use 'wrtcli add' to add a device.")
				return nil
			}
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS\tPROTOCOL")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Addr, d.Protocol)
			}
			return tw.Flush()
		},
	}
}
