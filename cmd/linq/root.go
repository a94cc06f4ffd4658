package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arvarik/linq-go/internal/config"
	"github.com/arvarik/linq-go/internal/log"
	"github.com/arvarik/linq-go/linq"
)

// app carries the state shared by all commands once flags are parsed.
type app struct {
	configPath string
	apiKey     string
	baseURL    string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logrus.Logger

	// extraOptions are appended to every client; tests use them to inject
	// transports.
	extraOptions []linq.Option
}

func newRootCommand(extra ...linq.Option) *cobra.Command {
	a := &app{extraOptions: extra}

	cmd := &cobra.Command{
		Use:   "linq",
		Short: "Linq Partner API command line tool",
		Long: `linq talks to the Linq Partner API.

Configuration is read from --config (YAML), then LINQ_* environment
variables, then flags. LINQ_API_KEY and LINQ_WEBHOOK_SECRET hold the
credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	a.registerFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newChatsCommand(a),
		newMessagesCommand(a),
		newWebhookCommand(a),
	)
	return cmd
}

func (a *app) registerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&a.apiKey, "api-key", "", "Partner API key (overrides LINQ_API_KEY)")
	fs.StringVar(&a.baseURL, "base-url", "", "API base URL (overrides LINQ_BASE_URL)")
	fs.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
}

// init loads the configuration, applies flag overrides and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	fs := cmd.Flags()
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if fs.Changed("api-key") {
		cfg.API.APIKey = a.apiKey
	}
	if fs.Changed("base-url") {
		cfg.API.BaseURL = a.baseURL
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	logger, err := log.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// client builds an API client from the loaded configuration.
func (a *app) client(extra ...linq.Option) (*linq.Client, error) {
	opts := append(a.cfg.ClientOptions(), linq.WithLogger(log.NewLogrLogger(a.logger)))
	opts = append(opts, a.extraOptions...)
	return linq.NewClient(append(opts, extra...)...)
}
