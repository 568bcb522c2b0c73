package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tejusbharadwaj/renugrid/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the live terminal dashboard",
	Long: `Open a full-screen dashboard with the latest voltage, current and power,
the generation/consumption mode, the connectivity state and a chart of the
recent history. The feed is polled in the background.

Keys:
  r        refresh now
  q        quit

Logs go to logging.file when set and are discarded otherwise, so they do not
draw over the dashboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context())
	},
}

func dashboardCommand(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, io.Discard)
	if err != nil {
		return err
	}
	defer a.close()

	// the model subscribes before the first poll so it sees every update
	model := tui.NewModel(a.store, a.scheduler, time.Local)

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return err
}
