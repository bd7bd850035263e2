package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/status"
	"github.com/rileyhilliard/lookout/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const eventTimeFormat = "15:04:05"

// monitorCommand runs the engine headless until interrupted.
func monitorCommand(cmd *cobra.Command, noServer bool, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(sessionOptions{Console: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return runMonitor(ctx, s, cmd.OutOrStdout(), !noServer, addr)
}

// runMonitor drives the engine, the config watcher, the event printer and
// optionally the status API until ctx is done or one of them fails.
func runMonitor(ctx context.Context, s *session, out io.Writer, serve bool, addr string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.engine.Run(ctx, engine.DefaultTickInterval)
	})
	g.Go(func() error {
		return s.watchConfig(ctx)
	})
	g.Go(func() error {
		printEvents(ctx, s.engine, out)
		return nil
	})
	if serve {
		srv := s.newServer(addr)
		g.Go(func() error {
			return srv.ListenAndServe(ctx)
		})
	}

	s.log.Info("monitoring %d targets", s.engine.Snapshot().Global.Total)
	err := g.Wait()
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// eventSource is the part of the engine printEvents needs.
type eventSource interface {
	Subscribe() (<-chan status.Event, func())
}

// printEvents writes one line per global transition until ctx is done or
// the source closes the channel.
func printEvents(ctx context.Context, src eventSource, out io.Writer) {
	events, unsubscribe := src.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintln(out, formatEvent(ev))
		}
	}
}

func formatEvent(ev status.Event) string {
	label, color := "Connection restored", ui.ColorSuccess
	if ev.Kind == status.ConnectionLost {
		label, color = "Connection lost", ui.ColorError
	}
	stamp := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(ev.At.Format(eventTimeFormat))
	head := lipgloss.NewStyle().Foreground(color).Bold(true).Render(label + ":")
	return fmt.Sprintf("%s %s %s", stamp, head, ev.Message)
}
