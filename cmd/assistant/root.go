package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petasbytes/go-assistant/internal/app"
	"github.com/petasbytes/go-assistant/internal/config"
)

type rootOptions struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Chat, retrieval and smart-home assistants over a chat-completion API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	pf.String("mode", config.ModeChat, "assistant mode: chat, rag or smarthome")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("log-format", "console", "log format: console or json")
	_ = opts.v.BindPFlag("mode", pf.Lookup("mode"))
	_ = opts.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = opts.v.BindPFlag("log.format", pf.Lookup("log-format"))

	cmd.AddCommand(newServeCmd(opts), newREPLCmd(opts))
	return cmd
}

// load reads and validates the config, then installs the global logger.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.v, o.configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := app.ConfigureLogging(cfg.Log, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}
