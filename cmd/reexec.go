package cmd

import (
	"github.com/spf13/cobra"

	"myrbox/stage"
	"myrbox/supervisor"
)

// These two subcommands are never invoked directly by an operator; the
// stage runner and the supervisor re-exec the binary into them to get a
// fresh process image for chroot+filter+exec and for the PID-namespaced
// session respectively. They are hidden from --help but still real cobra
// commands so cobra's normal arg dispatch handles them.

var stageInitCmd = &cobra.Command{
	Use:    "__stage_init__",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stage.RunInit()
	},
}

var sessionInitCmd = &cobra.Command{
	Use:    "__session_init__",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return supervisor.RunSessionInit()
	},
}

func init() {
	rootCmd.AddCommand(stageInitCmd)
	rootCmd.AddCommand(sessionInitCmd)
}
