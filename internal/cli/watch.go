package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/lookout/internal/dashboard"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// watchCommand shows the dashboard, or runs the headless monitor when
// stdout is not a terminal.
func watchCommand(cmd *cobra.Command, serve bool, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		s, err := openSession(sessionOptions{Console: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		return runMonitor(ctx, s, cmd.OutOrStdout(), serve, addr)
	}

	// Logs go to log.dir only while the dashboard owns the terminal.
	s, err := openSession(sessionOptions{AllowEmpty: true})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.watchConfig(gctx)
	})
	if serve {
		srv := s.newServer(addr)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
	}

	model := dashboard.NewModel(s.engine, dashboard.Options{Reload: s.reload})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
	_, runErr := p.Run()
	interrupted := gctx.Err() != nil

	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil && !interrupted {
		return runErr
	}
	return nil
}
