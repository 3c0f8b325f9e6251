// Package cli assembles the mediahub command tree
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediahub/internal/cli/app"
	"mediahub/internal/cli/auth"
	"mediahub/internal/cli/comments"
	clicfg "mediahub/internal/cli/config"
	"mediahub/internal/cli/interact"
	"mediahub/internal/cli/stats"
)

// EnvPrefix prefixes environment overrides, e.g. MEDIAHUB_SERVER
const EnvPrefix = "MEDIAHUB"

// NewRootCommand builds the command tree with its own viper instance
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "mediahub",
		Short:         "Likes, saves, shares, views and comments from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.String(app.KeyConfig, "", "Config file (default ./mediahub.yaml or ~/.config/mediahub/config.yaml)")
	pf.String(app.KeyServer, "", "API base URL, e.g. http://localhost:8080/api/v1")
	pf.String(app.KeySession, "", "Session database path")
	pf.Bool(app.KeyJSON, false, "Print JSON instead of text")
	pf.BoolP(app.KeyVerbose, "v", false, "Enable debug logging")
	_ = v.BindPFlags(pf)

	l := app.NewLoader(v)
	root.AddCommand(
		auth.NewCommand(l),
		stats.NewCommand(l),
		comments.NewCommand(l),
		clicfg.NewCommand(l),
	)
	root.AddCommand(interact.NewCommands(l)...)
	return root
}
