// Package cli implements the tierctl and tiermaker-server commands.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meur/tiermaker/internal/config"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	v        *viper.Viper
	out      io.Writer
	jsonMode bool
}

func newApp() *app {
	return &app{v: config.New(), out: os.Stdout}
}

// bindStateFlags registers the client flags on cmd and binds them into the
// app's viper instance.
func (a *app) bindStateFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolVar(&a.jsonMode, "json", false, "Output in JSON format")
	flags.String("api-url", "", "Upload server origin (env API_URL)")
	flags.String("state", "", "Local state path (env STATE_PATH)")
	flags.String("state-backend", "", "Local state backend: sqlite or json (env STATE_BACKEND)")
	flags.Bool("strict", false, "Reject unknown tier and item IDs (env STRICT)")
	flags.String("log-level", "", "Log level (env LOG_LEVEL)")
	bindFlags(a.v, flags, map[string]string{
		config.KeyAPIURL:       "api-url",
		config.KeyStatePath:    "state",
		config.KeyStateBackend: "state-backend",
		config.KeyStrict:       "strict",
		config.KeyLogLevel:     "log-level",
	})
}

// NewRootCmd builds the tierctl command tree.
func NewRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:           "tierctl",
		Short:         "Build tier lists from uploaded images",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
		},
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	a.bindStateFlags(root)

	root.AddCommand(newTierCmd(a))
	root.AddCommand(newItemCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newToggleImporterCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newImportDirCmd(a))
	root.AddCommand(newHealthCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}
