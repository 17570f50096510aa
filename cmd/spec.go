package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"myrbox/seccomp"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Print the effective operational configuration as JSON",
	Long: `spec prints the resolved configuration (paths, resource envelope,
toolchain argv) and the three seccomp allow-lists (master, compile, run) as
a single JSON document, for operators to diff against what they expect a
deployment to be running.`,
	Args: cobra.NoArgs,
	RunE: runSpecCmd,
}

func init() {
	rootCmd.AddCommand(specCmd)
}

type specOutput struct {
	Config  interface{} `json:"config"`
	Filters struct {
		Master  []string `json:"master"`
		Compile []string `json:"compile"`
		Run     []string `json:"run"`
	} `json:"filters"`
}

func runSpecCmd(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	var out specOutput
	out.Config = cfg
	out.Filters.Master = seccomp.Master
	out.Filters.Compile = seccomp.Compile
	out.Filters.Run = seccomp.Run

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
