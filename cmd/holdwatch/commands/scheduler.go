package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/holdwatch/internal/scheduler"
	"github.com/wonny/holdwatch/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler or runs its jobs by hand.

Subcommands:
  start   - start the scheduler daemon
  list    - registered jobs
  run     - run one job now (retries included)

Example:
  go run ./cmd/holdwatch scheduler start
  go run ./cmd/holdwatch scheduler run daily_run`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and registers every job.

Registered jobs:
- daily_run: SCHEDULE (default weekdays 06:30, seconds first)

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== holdwatch scheduler ===")

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for name, st := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)", name, st.Schedule)
		if st.NextRun != nil {
			fmt.Printf(" next %s", st.NextRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{silent: true})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	res, err := sched.RunJob(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !res.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", jobName, res.Attempts, res.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", jobName, res.Duration))
	return nil
}

// newScheduler registers every job against the wired app
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewDailyRunJob(a.runner, a.cfg.Schedule, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}
