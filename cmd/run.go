package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"myrbox/session"
	"myrbox/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read a submission from stdin and run one sandboxed session",
	Long: `run reads up to the submission size cap from standard input,
compiles and runs it inside the isolation kernel, and writes the CGI-style
response (content-type header, a "Building" line, then captured compile and
run output) to standard output.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.RunE = runRun // running myrbox with no subcommand behaves like `myrbox run`
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	submission, err := session.ReadSubmission(os.Stdin, cfg.Envelope.SubmissionBytes)
	if err != nil {
		return err
	}

	result, err := supervisor.RunOnce(cfg, submission)
	if err != nil {
		return err
	}

	os.Stdout.Write(result.Output)
	return nil
}
