// Package cli implements the interview command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/NishanthN27/Final-Year/internal/config"
	"github.com/NishanthN27/Final-Year/internal/logging"
)

// Deps are the external pieces a command tree talks to. Zero fields use
// the real providers and a terminal prompter.
type Deps struct {
	Models   ModelFactory
	Prompter Prompter
}

// runner carries configuration from the root command to its subcommands.
type runner struct {
	deps   Deps
	v      *viper.Viper
	file   string
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the interview command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Models == nil {
		deps.Models = ProviderModels
	}
	if deps.Prompter == nil {
		deps.Prompter = terminalPrompter{}
	}
	r := &runner{deps: deps, v: config.New()}

	root := &cobra.Command{
		Use:           config.App,
		Short:         "Adaptive mock interviews driven by a checkpointed graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if r.logger != nil {
				_ = r.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&r.file, "config", "c", "", "config file (default ./interview.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("json", false, "log in JSON format")
	flags.String("store", "", "checkpoint store: memory, sqlite, mysql or redis")
	flags.String("dsn", "", "store DSN or SQLite path")
	flags.String("provider", "", "llm provider: google, openai or anthropic")
	for key, flag := range map[string]string{
		"log.debug":    "debug",
		"log.json":     "json",
		"store.driver": "store",
		"store.dsn":    "dsn",
		"llm.provider": "provider",
	} {
		_ = r.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		r.newStartCmd(),
		r.newAnswerCmd(),
		r.newShowCmd(),
		r.newSessionsCmd(),
		r.newDeleteCmd(),
		r.newGraphCmd(),
		r.newInteractiveCmd(),
	)
	return root
}

// init loads configuration and builds the logger once per invocation.
func (r *runner) init() error {
	cfg, err := config.Load(r.v, r.file)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	r.cfg, r.logger = cfg, logger
	logger.Debug("configuration loaded",
		zap.String("store", cfg.Store.Driver),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("file", r.v.ConfigFileUsed()),
	)
	return nil
}

// open wires a full app for commands that run sessions.
func (r *runner) open(ctx context.Context) (*app, error) {
	if r.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return newApp(ctx, r.cfg, r.logger, r.deps.Models)
}
