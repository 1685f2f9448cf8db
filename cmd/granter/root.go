package main

import (
	"os"
	"strings"

	"github.com/jrsteele09/go-token-engine/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type app struct {
	config config.Config
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":         "log_level",
	"issuer":            "oauth.issuer",
	"audience":          "oauth.audience",
	"signing-algorithm": "signing.algorithm",
	"signing-key-file":  "signing.private_key_file",
	"seed":              "store.seed_file",
	"postgres-dsn":      "store.postgres_dsn",
	"redis-addr":        "store.redis_addr",
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var configPath string
	var quiet bool

	cmd := &cobra.Command{
		Use:           "granter",
		Short:         "OAuth2 token issuance engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			for flag, key := range flagKeys {
				if err := cfg.Viper().BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
					return errors.Wrapf(err, "bind flag %s", flag)
				}
			}
			a.config = cfg
			setupLogging(cfg.GetLogLevel())
			if !quiet {
				displayAppname(cmd.ErrOrStderr(), cfg.GetAppName())
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (yaml, json or toml)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not print the banner")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("issuer", "", "token issuer (iss)")
	flags.String("audience", "", "token audience (aud)")
	flags.String("signing-algorithm", "", "RS256 or HS256")
	flags.String("signing-key-file", "", "PEM encoded RSA private key")
	flags.String("seed", "", "yaml file of clients, users and tenants")
	flags.String("postgres-dsn", "", "Postgres connection string for client details")
	flags.String("redis-addr", "", "Redis address for captchas and authorization codes")

	cmd.AddCommand(newKeysCommand(), newIssueCommand(a), newCaptchaCommand(a))
	return cmd
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
