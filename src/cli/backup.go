package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wrtcli/src/backup"
	"wrtcli/src/backup/catalog"
	"wrtcli/src/safety"
	"wrtcli/src/wrtapi"
)

func newBackupCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, inspect, restore, and remove device configuration backups",
	}
	cmd.PersistentFlags().String("protocol", "", "Override the device's protocol tag: ubus|luci")
	cmd.AddCommand(newBackupCreateCmd(stdout))
	cmd.AddCommand(newBackupListCmd(stdout))
	cmd.AddCommand(newBackupShowCmd(stdout))
	cmd.AddCommand(newBackupRestoreCmd(stdout, stderr))
	cmd.AddCommand(newBackupRemoveCmd(stdout, stderr))
	return cmd
}

// serviceFor assembles the backup service for one registered device.
// Overridable in tests to substitute a fake client.
var serviceFor = func(cmd *cobra.Command, name string) (*backup.Service, wrtapi.Device, error) {
	d, err := getDevice(cmd, name)
	if err != nil {
		return nil, wrtapi.Device{}, err
	}
	cfg, err := getManager(cmd)
	if err != nil {
		return nil, wrtapi.Device{}, err
	}
	dir, err := cfg.BackupDir(d.Name)
	if err != nil {
		return nil, wrtapi.Device{}, err
	}
	store, err := catalog.NewStore(d.Name, dir)
	if err != nil {
		return nil, wrtapi.Device{}, err
	}
	client, err := wrtapi.ForProtocol(d.Protocol)
	if err != nil {
		return nil, wrtapi.Device{}, err
	}
	return backup.NewService(client, store), d, nil
}

func newBackupCreateCmd(stdout io.Writer) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <device>",
		Short: "Create a new configuration backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, d, err := serviceFor(cmd, args[0])
			if err != nil {
				return err
			}
			rec, err := svc.Create(d, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Backup %s created for device %q (%d bytes)\n", rec.ID, d.Name, rec.SizeBytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Optional description for the backup")
	return cmd
}

func newBackupListCmd(stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list <device>",
		Short: "List all backups for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := serviceFor(cmd, args[0])
			if err != nil {
				return err
			}
			records, err := svc.List()
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			case "table", "":
				return renderRecords(stdout, records)
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func renderRecords(w io.Writer, records []catalog.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMETHOD\tSIZE\tDESCRIPTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.BackupMethod, r.SizeBytes, r.Description)
	}
	return tw.Flush()
}

func newBackupShowCmd(stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <device> <id>",
		Short: "Show details of a specific backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := serviceFor(cmd, args[0])
			if err != nil {
				return err
			}
			rec, err := svc.Show(args[1])
			if err != nil {
				return err
			}
			if output == "json" {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Fprintf(stdout, "Backup:      %s\n", rec.ID)
			fmt.Fprintf(stdout, "Device:      %s\n", rec.DeviceName)
			fmt.Fprintf(stdout, "Created:     %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(stdout, "Type:        %s\n", rec.BackupType)
			fmt.Fprintf(stdout, "Method:      %s\n", rec.BackupMethod)
			fmt.Fprintf(stdout, "File:        %s\n", rec.Filename)
			fmt.Fprintf(stdout, "Size:        %d bytes\n", rec.SizeBytes)
			if rec.Description != "" {
				fmt.Fprintf(stdout, "Description: %s\n", rec.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func newBackupRestoreCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <device> <id>",
		Short: "Restore a backup to the device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, d, err := serviceFor(cmd, args[0])
			if err != nil {
				return err
			}
			question := fmt.Sprintf("Restore backup %s to device %q? The device will reboot", args[1], d.Name)
			ok, err := safety.Confirm(getSafetyOptions(cmd), os.Stdin, stderr, question)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stdout, "Aborted.")
				return nil
			}
			if err := svc.Restore(d, args[1]); err != nil {
				var rerr *wrtapi.RestoreError
				if errors.As(err, &rerr) && rerr.Activated {
					// Configuration is on the device; only the reboot failed.
					fmt.Fprintf(stderr, "Warning: %v\n", err)
					fmt.Fprintf(stdout, "Backup %s restored to device %q; reboot it manually to activate\n", args[1], d.Name)
					return nil
				}
				return err
			}
			fmt.Fprintf(stdout, "Backup %s restored to device %q\n", args[1], d.Name)
			return nil
		},
	}
	return cmd
}

func newBackupRemoveCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <device> <id>",
		Short: "Remove a backup and its archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, d, err := serviceFor(cmd, args[0])
			if err != nil {
				return err
			}
			question := fmt.Sprintf("Remove backup %s of device %q", args[1], d.Name)
			ok, err := safety.Confirm(getSafetyOptions(cmd), os.Stdin, stderr, question)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stdout, "Aborted.")
				return nil
			}
			if err := svc.Remove(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Backup %s removed\n", args[1])
			return nil
		},
	}
	return cmd
}
