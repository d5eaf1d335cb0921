package cli

import (
	"github.com/spf13/cobra"

	"wrtcli/src/config"
	"wrtcli/src/safety"
	"wrtcli/src/wrtapi"
)

// addGlobalFlags adds the persistent flags shared by every command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config-dir", "", "Config root (default ~/.wrtcli)")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// getSafetyOptions reads global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	return safety.Options{Yes: yes}
}

// getManager opens the config root selected by --config-dir.
func getManager(cmd *cobra.Command) (*config.Manager, error) {
	dir, _ := cmd.Root().PersistentFlags().GetString("config-dir")
	return config.New(dir)
}

// getDevice resolves a registered device, optionally overriding its stored
// protocol tag with the value of a local --protocol flag.
func getDevice(cmd *cobra.Command, name string) (wrtapi.Device, error) {
	cfg, err := getManager(cmd)
	if err != nil {
		return wrtapi.Device{}, err
	}
	d, err := cfg.GetDevice(name)
	if err != nil {
		return wrtapi.Device{}, err
	}
	if f := cmd.Flags().Lookup("protocol"); f != nil && f.Changed {
		p, err := wrtapi.ParseProtocol(f.Value.String())
		if err != nil {
			return wrtapi.Device{}, err
		}
		d.Protocol = p
	}
	return d, nil
}
