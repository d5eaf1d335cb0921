package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the root cobra command for the wrtcli CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrtcli",
		Short: "Manage OpenWrt devices: registry, status, reboot, and configuration backups",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd, stderr)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newAddCmd(stdout))
	cmd.AddCommand(newListCmd(stdout))
	cmd.AddCommand(newStatusCmd(stdout))
	cmd.AddCommand(newRebootCmd(stdout))
	cmd.AddCommand(newBackupCmd(stdout, stderr))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

func setupLogging(cmd *cobra.Command, stderr io.Writer) {
	level := zerolog.InfoLevel
	if debug, _ := cmd.Root().PersistentFlags().GetBool("debug"); debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr})
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
