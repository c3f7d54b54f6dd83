package cmd

import (
	"os"

	"github.com/LegacyCodeHQ/codeviz/cmd/layout"
	"github.com/LegacyCodeHQ/codeviz/cmd/search"
	"github.com/LegacyCodeHQ/codeviz/cmd/serve"
	"github.com/LegacyCodeHQ/codeviz/cmd/view"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codeviz",
		Short: "Explore the file dependency graph of a codebase",
		Long: `Codeviz is a terminal client for a codebase dependency server. It loads
the file graph the server builds, follows indexing progress as it happens,
and lets you search files and inspect what each file imports and what
imports it.

Use 'codeviz --help' to see all available commands, or 'codeviz <command> --help'
for detailed information about a specific command.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(view.NewCommand())
	cmd.AddCommand(search.NewCommand())
	cmd.AddCommand(layout.NewCommand())
	cmd.AddCommand(serve.NewCommand())

	cmd.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
