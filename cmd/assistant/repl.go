package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/app"
)

func newREPLCmd(opts *rootOptions) *cobra.Command {
	var transcript string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat with the assistant in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if transcript != "" {
				cfg.REPL.Transcript = transcript
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunREPL(ctx, os.Stdin, os.Stdout, cfg.REPL.Transcript)
		},
	}
	cmd.Flags().StringVar(&transcript, "transcript", "", "transcript file (default from repl.transcript)")
	return cmd
}
