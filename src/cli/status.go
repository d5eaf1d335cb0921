package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wrtcli/src/wrtapi"
)

func newStatusCmd(stdout io.Writer) *cobra.Command {
	var (
		raw    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "status <device>",
		Short: "Show system status of a device",
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
			st, err := client.Status(d, sess)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			printStatus(stdout, d, st, raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Display raw values (KB, seconds) instead of human readable format")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().String("protocol", "", "Override the device's protocol tag: ubus|luci")
	return cmd
}

func printStatus(w io.Writer, d wrtapi.Device, st wrtapi.SystemStatus, raw bool) {
	fmt.Fprintf(w, "Device Status: %s\n", d.Name)
	fmt.Fprintln(w, "----------------")
	fmt.Fprintf(w, "Model:    %s\n", st.Model)
	fmt.Fprintf(w, "Hostname: %s\n", st.Hostname)
	if raw {
		fmt.Fprintf(w, "Uptime:   %d seconds\n", st.Uptime)
	} else {
		fmt.Fprintf(w, "Uptime:   %s\n", humanDuration(st.Uptime))
	}
	if len(st.Load) > 0 {
		if raw {
			fmt.Fprintf(w, "Load:     %.0f\n", st.Load[0])
		} else {
			// ubus reports load scaled by 65536
			fmt.Fprintf(w, "Load:     %.2f\n", st.Load[0]/65536)
		}
	}
	fmt.Fprintln(w, "Memory:")
	if raw {
		fmt.Fprintf(w, "  Total: %d\n", st.Memory.Total)
		fmt.Fprintf(w, "  Free:  %d\n", st.Memory.Free)
	} else {
		fmt.Fprintf(w, "  Total: %s\n", humanBytes(st.Memory.Total))
		fmt.Fprintf(w, "  Free:  %s\n", humanBytes(st.Memory.Free))
	}
}

func humanDuration(seconds uint64) string {
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
