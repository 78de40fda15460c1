package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "notegraph",
		Short: "Browse a notebook directory as a collapsible graph",
		Long: `Notegraph turns a directory of notebook files into a compound graph:
files are nodes, directories are regions, and the links and imports
inside each file become edges. Regions can be collapsed into a single
node and expanded again.

Settings are read from notegraph.yaml in the notebook root.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.PersistentFlags().String("root", "", "Notebook root directory (default: current directory)")
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: <root>/notegraph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Core Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default notegraph.yaml and .notegraphignore",
		RunE:  RunInit,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the notebook and report what changed since the last scan",
		RunE:  RunScan,
	}
	scanCmd.Flags().Bool("json", false, "Print machine-readable scan report")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Print the visible graph",
		RunE:  RunView,
	}
	viewCmd.Flags().StringSlice("collapse", nil, "Regions to collapse before printing (comma-separated)")
	viewCmd.Flags().StringSlice("expand", nil, "Regions to expand before printing (comma-separated)")
	viewCmd.Flags().Bool("json", false, "Print the graph as {nodes, edges} JSON")
	viewCmd.Flags().Bool("jsonl", false, "Print one JSON element per line")

	// Navigate Commands
	resolveCmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show the visible node or region standing in for a path",
		Args:  cobra.ExactArgs(1),
		RunE:  RunResolve,
	}
	resolveCmd.Flags().Bool("json", false, "Print machine-readable result")

	linksCmd := &cobra.Command{
		Use:   "links <path>",
		Short: "List the references found in one file",
		Args:  cobra.ExactArgs(1),
		RunE:  RunLinks,
	}
	linksCmd.Flags().Bool("json", false, "Print machine-readable references")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search files and directories by name",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunSearch,
	}
	searchCmd.Flags().Int("limit", 10, "Maximum number of results")
	searchCmd.Flags().Bool("json", false, "Print machine-readable results")

	// Serve Commands
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over HTTP",
		RunE:  func(cmd *cobra.Command, args []string) error { return RunServe(cmd, version) },
	}
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
	serveCmd.Flags().Bool("watch", false, "Rescan when files under the root change")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("notegraph %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		scanCmd,
		viewCmd,
		resolveCmd,
		linksCmd,
		searchCmd,
		serveCmd,
		versionCmd,
	)

	return rootCmd
}
