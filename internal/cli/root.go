package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/rileyhilliard/lookout/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	noColor bool
	debug   bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "lookout",
	Short: "Watch hosts and services with ping, TCP and HTTP probes",
	Long: `lookout probes a tree of hosts with ICMP echo, TCP connect and HTTP
requests, rolls the results up per group and shows them live.

Run 'lookout watch' for the dashboard, 'lookout run' for a headless monitor
with a status API, or 'lookout check' for a one-shot health check.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./lookout.yaml, then ~/.config/lookout/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// ExitError ends the process with Code. Its message, if any, has already
// been shown to the user.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exit *ExitError
	if stderrors.As(err, &exit) {
		os.Exit(exit.Code)
	}

	fmt.Fprintln(os.Stderr, err)
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "\n'%s' is not a lookout command. See 'lookout --help'.\n", name)
		}
	}
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "lookout"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
