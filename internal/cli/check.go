package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/status"
	"github.com/rileyhilliard/lookout/internal/ui"
	"github.com/rileyhilliard/lookout/internal/util"
	"github.com/spf13/cobra"
)

const defaultCheckTimeout = 30 * time.Second

// Check exit codes.
const (
	checkExitOK      = 0
	checkExitFailed  = 1
	checkExitPending = 2
)

// tickDriver is the engine surface a check needs.
type tickDriver interface {
	Tick(dt time.Duration)
	Snapshot() *engine.Snapshot
}

// checkReport is the --json payload.
type checkReport struct {
	Global  status.Global       `json:"global"`
	Targets []engine.TargetView `json:"targets"`
}

func checkCommand(cmd *cobra.Command, timeout time.Duration, asJSON bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	s, err := openSession(sessionOptions{Console: cmd.ErrOrStderr()})
	if err != nil {
		if asJSON {
			_ = WriteJSONFromError(out, err)
			return &ExitError{Code: checkExitFailed}
		}
		return err
	}
	defer func() { _ = s.Close() }()

	snap := awaitResults(ctx, s.engine, timeout, engine.DefaultTickInterval)
	code := checkExitCode(snap)

	if asJSON {
		if err := writeCheckJSON(out, snap, code); err != nil {
			return err
		}
	} else {
		writeCheckTable(out, snap, code)
	}

	if code != checkExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

// awaitResults ticks d every interval until no target is awaiting its
// first cycle, timeout passes or ctx is done, and returns the last
// snapshot.
func awaitResults(ctx context.Context, d tickDriver, timeout, interval time.Duration) *engine.Snapshot {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.Tick(0)
	last := time.Now()
	for {
		if snap := d.Snapshot(); !snap.Global.Awaiting {
			return snap
		}
		select {
		case <-ctx.Done():
			return d.Snapshot()
		case <-deadline.C:
			d.Tick(time.Since(last))
			return d.Snapshot()
		case now := <-ticker.C:
			d.Tick(now.Sub(last))
			last = now
		}
	}
}

// checkExitCode maps a snapshot to the process exit code. Failures win
// over missing results.
func checkExitCode(snap *engine.Snapshot) int {
	switch {
	case snap.Global.Failed > 0:
		return checkExitFailed
	case !snap.Configured || snap.Global.Awaiting:
		return checkExitPending
	default:
		return checkExitOK
	}
}

// checkRows flattens the snapshot into one row per protocol. The target
// column is filled on each target's first row only.
func checkRows(snap *engine.Snapshot) []ui.StatusTableRow {
	var rows []ui.StatusTableRow
	for _, tv := range snap.Targets {
		if len(tv.Protocols) == 0 {
			rows = append(rows, ui.StatusTableRow{State: tv.State.String(), Target: tv.Address})
			continue
		}
		for i, pv := range tv.Protocols {
			row := ui.StatusTableRow{
				Protocol: pv.Protocol,
				Result:   pv.Text,
				Class:    pv.Classification,
			}
			if i == 0 {
				row.State = tv.State.String()
				row.Target = tv.Address
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func writeCheckTable(w io.Writer, snap *engine.Snapshot, code int) {
	fmt.Fprintln(w, ui.RenderStatusTable(checkRows(snap)))
	fmt.Fprintln(w)

	g := snap.Global
	summary := fmt.Sprintf("%s: %d ok, %d warning, %d failed", util.Count(g.Total, "target", "targets"), g.Success, g.Warning, g.Failed)
	if g.Pending > 0 {
		summary += fmt.Sprintf(", %d pending", g.Pending)
	}
	switch code {
	case checkExitFailed:
		fmt.Fprintf(w, "%s %s\n", ui.SymbolFail, summary)
	case checkExitPending:
		fmt.Fprintf(w, "%s %s\n", ui.SymbolPending, summary)
	default:
		fmt.Fprintf(w, "%s %s\n", ui.SymbolSuccess, summary)
	}
	if g.Message != "" {
		fmt.Fprintln(w, g.Message)
	}
}

func writeCheckJSON(w io.Writer, snap *engine.Snapshot, code int) error {
	report := checkReport{Global: snap.Global, Targets: snap.Targets}
	if code == checkExitOK {
		return WriteJSONSuccess(w, report)
	}

	jsonErr := &JSONError{
		Code:    ErrCodeTargetsFailing,
		Message: fmt.Sprintf("%d of %d targets failed", snap.Global.Failed, snap.Global.Total),
	}
	if code == checkExitPending {
		jsonErr.Message = fmt.Sprintf("%d of %d targets have no result yet", snap.Global.Pending, snap.Global.Total)
		jsonErr.Suggestion = "Raise --timeout or lower the probe timeouts"
	}
	return WriteJSONFailure(w, report, jsonErr)
}
