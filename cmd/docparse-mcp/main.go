package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configFile, "config", "", "YAML config file")
	fs.StringVar(&g.envFile, "env", ".env", "dotenv file loaded before the environment is read")
	fs.StringVar(&g.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "docparse-mcp",
		Short: "Extract typed entities from scanned form and invoice pages",
		Long: `docparse-mcp runs OCR, token labeling and spatial grouping over document
images. Without a subcommand it serves the MCP protocol over stdin/stdout.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), flags)
		},
	}
	flags.register(root.PersistentFlags())

	root.AddCommand(
		newMCPCmd(flags),
		newServeCmd(flags),
		newParseCmd(flags),
		newGroupCmd(flags),
		newFunsdCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docparse-mcp %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
