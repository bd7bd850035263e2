package cli

import (
	"time"

	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	watchServeFlag bool
	watchAddrFlag  string
	runNoServer    bool
	runAddrFlag    string
	checkTimeout   time.Duration
	checkJSON      bool
	resolveFlat    bool
)

// watchCmd shows the live dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live status dashboard",
	Long: `Probe every configured target and show the results in a live dashboard.

The config file is watched and reloaded on save. When stdout is not a
terminal, watch falls back to the headless monitor used by 'lookout run'.

Examples:
  lookout watch
  lookout watch --config ./infra.yaml
  lookout watch --serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd, watchServeFlag, watchAddrFlag)
	},
}

// runCmd runs the headless monitor
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the headless monitor and status API",
	Long: `Probe every configured target without a UI, print connection lost and
restored transitions, and serve the status API.

Endpoints:
  GET /healthz
  GET /api/status
  GET /api/targets/{id}   ('#' in ids is sent as %23)
  GET /api/ws             (websocket snapshot stream)

Examples:
  lookout run
  lookout run --addr 0.0.0.0:8080
  lookout run --no-server`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd, runNoServer, runAddrFlag)
	},
}

// checkCmd runs one probe cycle and reports the result
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every target once and report",
	Long: `Wait until every target has completed a probe cycle, print a table of the
results and exit.

Exit codes:
  0  every target succeeded or warned
  1  at least one target failed
  2  some targets had no result before --timeout

Examples:
  lookout check
  lookout check --timeout 10s
  lookout check --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkCommand(cmd, checkTimeout, checkJSON)
	},
}

// resolveCmd prints the resolved target tree
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the resolved target tree",
	Long: `Resolve the config into the tree the engine will watch and print it as
YAML, with inherited settings applied to every target.

Examples:
  lookout resolve
  lookout resolve --flat`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveCommand(cmd, resolveFlat)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for lookout.

Examples:
  # Bash
  lookout completion bash > /etc/bash_completion.d/lookout

  # Zsh
  lookout completion zsh > "${fpath[1]}/_lookout"

  # Fish
  lookout completion fish > ~/.config/fish/completions/lookout.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// watch command flags
	watchCmd.Flags().BoolVar(&watchServeFlag, "serve", false, "also serve the status API")
	watchCmd.Flags().StringVar(&watchAddrFlag, "addr", "", "status API address (default from server.addr)")

	// run command flags
	runCmd.Flags().BoolVar(&runNoServer, "no-server", false, "don't serve the status API")
	runCmd.Flags().StringVar(&runAddrFlag, "addr", "", "status API address (default from server.addr)")

	// check command flags
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", defaultCheckTimeout, "how long to wait for every target's first result")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output as JSON")

	// resolve command flags
	resolveCmd.Flags().BoolVar(&resolveFlat, "flat", false, "list targets with effective per-protocol settings")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(completionCmd)
}
