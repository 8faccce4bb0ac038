package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/status"
)

var (
	trackCategory string
	trackPomodoro bool
)

var trackCmd = &cobra.Command{
	Use:   "track <projectID>",
	Short: "Start a timing session on a project",
	Long: `Start a timing session on the given project and keep it running until
interrupted. Ctrl-C stops the session and records the elapsed time.

While tracking, a local status endpoint serves the live session for
widgets and shell prompts.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVarP(&trackCategory, "category", "c", "", "Category label for the session")
	trackCmd.Flags().BoolVar(&trackPomodoro, "pomodoro", false, "Run the session in pomodoro mode")
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID := args[0]

	app, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer app.teardown()

	// Surface alerts and budget warnings on the terminal.
	unsubs := []func(){
		app.bus.Subscribe(event.TimerInterrupt, func(e event.Event) {
			fmt.Println("\nStill working? Run 'itimedit ack' or Ctrl-C to stop.")
		}),
		app.bus.Subscribe(event.TimerPhaseChanged, func(e event.Event) {
			if d, ok := e.Data.(event.TimerPhaseChangedData); ok {
				fmt.Printf("\nPomodoro: %s -> %s\n", d.From, d.To)
			}
		}),
		app.bus.Subscribe(event.TimerBudgetWarning, func(e event.Event) {
			if d, ok := e.Data.(event.TimerBudgetWarningData); ok {
				fmt.Printf("\nBudget %s: %.0f%% of project %s used\n",
					d.Report.Status, d.Report.UsagePercent, d.ProjectID)
			}
		}),
		app.bus.Subscribe(event.TimerNetworkError, func(e event.Event) {
			fmt.Println("\nConnection problem, still tracking locally.")
		}),
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	if err := app.controller.StartTimer(ctx, projectID, trackCategory, trackPomodoro); err != nil {
		return err
	}
	scope := app.workspace.Scope()
	fmt.Printf("Tracking %s (%s workspace)\n", projectID, scope.Kind)

	// Local status surface for widgets, unless disabled.
	var statusSrv *status.Server
	if app.cfg.StatusEnabled() {
		statusCfg := status.DefaultConfig()
		if app.cfg.Status != nil && app.cfg.Status.Port > 0 {
			statusCfg.Port = app.cfg.Status.Port
		}
		statusSrv = status.New(statusCfg, app.controller, app.workspace)
		go func() {
			if err := statusSrv.Start(); err != nil && err != http.ErrServerClosed {
				logging.Warn().Err(err).Msg("status server stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nStopping session...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if statusSrv != nil {
		if err := statusSrv.Shutdown(stopCtx); err != nil {
			logging.Warn().Err(err).Msg("status server shutdown")
		}
	}

	elapsed := app.controller.Elapsed()
	if err := app.controller.StopTimer(stopCtx); err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}
	fmt.Printf("Recorded %s on %s\n", formatElapsed(elapsed), projectID)
	return nil
}

// formatElapsed renders seconds as h:mm:ss.
func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
