package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/memory"
)

// RunREPL reads utterances line by line from in until EOF or ctx is done.
// The transcript at path is loaded first and saved after every turn.
func (a *App) RunREPL(ctx context.Context, in io.Reader, out io.Writer, path string) error {
	conv, err := memory.LoadConversation(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("repl: failed to load persisted conversation")
		conv = nil
	}

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(inputCh)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprintf(out, "Chat with the %s assistant (Ctrl-C to quit)\n", a.Config.Mode)
	for {
		fmt.Fprint(out, "\u001b[94mYou\u001b[0m: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case line, ok = <-inputCh:
		}
		if !ok {
			fmt.Fprintln(out)
			select {
			case err := <-scanErr:
				return err
			default:
				return nil
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, updated, err := a.Runner.Respond(ctx, conv, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		conv = updated
		fmt.Fprintf(out, "\u001b[93mAssistant\u001b[0m: %s\n", reply)

		if err := memory.SaveConversation(path, conv); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("repl: failed to save conversation")
		}
	}
}
