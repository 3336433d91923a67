package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/holdwatch/internal/contracts"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily pipeline once",
	Long: `Scrapes today's holdings, attributes the change against the previous
stored day, sends alerts and saves today's snapshot.

Re-running the same date compares against the previous day again and
overwrites today's entry.

Example:
  go run ./cmd/holdwatch run
  go run ./cmd/holdwatch run --date 2024-01-03 --silent --output json`,
	RunE: runPipeline,
}

var (
	runDate   string
	runSilent bool
	runOutput string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "run date YYYY-MM-DD (default today)")
	runCmd.Flags().BoolVar(&runSilent, "silent", false, "skip notifications")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "text", "output format (text|json|markdown)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	a, err := newApp(ctx, appOptions{silent: runSilent})
	if err != nil {
		return err
	}
	defer a.Close()

	date := runDate
	if date == "" {
		date = time.Now().Format(contracts.DateLayout)
	}

	res, err := a.runner.Run(ctx, date)
	if err != nil {
		return fmt.Errorf("run %s: %w", date, err)
	}

	switch runOutput {
	case "json":
		return printJSON(res)
	case "markdown":
		fmt.Print(res.Markdown)
		return nil
	}

	PrintDoubleSeparator()
	fmt.Printf("  Holdings %s", res.Date)
	if res.PrevDate != "" {
		fmt.Printf(" vs %s", res.PrevDate)
	}
	fmt.Println()
	PrintSeparator()

	if res.ColdStart {
		PrintWarning("No earlier snapshot, every holding counts as new")
	}
	if len(res.Results) == 0 {
		fmt.Println("Nothing changed beyond noise.")
	} else if err := printResults(os.Stdout, res.Results); err != nil {
		return err
	}

	for _, m := range res.NewMemos {
		fmt.Printf("  New memo: %s\n", m.Title)
	}

	PrintSeparator()
	if res.MemoErr != "" {
		PrintWarning("Memo check failed: " + res.MemoErr)
	}
	if res.NotifyErr != "" {
		PrintWarning("Alert delivery failed: " + res.NotifyErr)
	}
	PrintSuccess(fmt.Sprintf("Run %s completed in %s", res.RunID, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond)))
	return nil
}
