package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calwhisper application
var rootCmd = &cobra.Command{
	Use:   "calwhisper",
	Short: "Natural-language Google Calendar assistant as an MCP server",
	Long: `calwhisper is an MCP (Model Context Protocol) server that lets AI
assistants query and manage a Google Calendar with natural language.

Free-form queries are resolved into concrete date ranges and times by a
language model, events are fetched through a service account, and results
are narrated back as conversational prose.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calwhisper version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
