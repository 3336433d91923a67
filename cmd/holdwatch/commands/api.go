package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/holdwatch/internal/api"
	"github.com/wonny/holdwatch/internal/api/handlers"
	"github.com/wonny/holdwatch/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the read-only REST API, optionally with the scheduler in the
same process so /api/attribution/latest and /ws/alerts see its runs.

Endpoints:
  GET  /health                   - Health check
  GET  /api/history              - Stored dates
  GET  /api/history/{date}       - Snapshot of one date
  GET  /api/attribution/latest   - Last completed run
  GET  /api/jobs                 - Scheduler statistics
  GET  /ws/alerts                - Alert stream (websocket)

Example:
  go run ./cmd/holdwatch api
  go run ./cmd/holdwatch api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "run the scheduler in this process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== holdwatch API server ===")

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	var sched *scheduler.Scheduler
	if apiWithScheduler {
		if sched, err = newScheduler(a); err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	h := api.Handlers{
		Health:      handlers.NewHealthHandler(nil, a.hub),
		History:     handlers.NewHistoryHandler(a.runner, a.log),
		Attribution: handlers.NewAttributionHandler(a.runner),
		Jobs:        handlers.NewJobsHandler(nil),
		Memos:       handlers.NewMemosHandler(a.runner, a.log),
		Alerts:      a.hub,
	}
	if a.db != nil {
		h.Health = handlers.NewHealthHandler(a.db, a.hub)
	}
	if sched != nil {
		h.Jobs = handlers.NewJobsHandler(sched)
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
