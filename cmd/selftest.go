package cmd

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"myrbox/config"
	"myrbox/logging"
)

var selftestWatch bool

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Validate the template directory against the build manifest",
	Long: `selftest resolves every manifest entry (literal or glob) against the
template directory and reports any that are missing. With --watch it keeps
running and re-validates whenever the template tree changes, so a bad
template edit is caught before it reaches a session.`,
	Args: cobra.NoArgs,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().BoolVar(&selftestWatch, "watch", false, "keep running, re-validating on template directory changes")
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	if !validate(cfg) {
		return fmt.Errorf("selftest: template directory failed validation")
	}
	fmt.Println("selftest: template directory OK")

	if !selftestWatch {
		return nil
	}
	return watchTemplate(cfg)
}

// validate runs the manifest check once and prints every problem found.
// It returns false if any manifest entry could not be resolved.
func validate(cfg config.Config) bool {
	errs := config.Validate(cfg.TemplateDir, cfg.Manifest)
	for _, err := range errs {
		fmt.Println("selftest:", err)
	}
	return len(errs) == 0
}

// watchTemplate re-runs validate whenever the template directory changes,
// until the watcher itself fails or is closed.
func watchTemplate(cfg config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("selftest: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.TemplateDir); err != nil {
		return fmt.Errorf("selftest: watch %s: %w", cfg.TemplateDir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logging.Info("template directory changed", "event", event.String())
			validate(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("template watcher", "error", err)
		}
	}
}
