package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/holdwatch/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored snapshots",
	Long: `Reads the configured history store (file or postgres).

Subcommands:
  list   - stored dates
  show   - one date's holdings
  memos  - manager memos seen so far

Example:
  go run ./cmd/holdwatch history list
  go run ./cmd/holdwatch history show 2024-01-03
  go run ./cmd/holdwatch history memos --full`,
}

var (
	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored dates",
		RunE:  listHistory,
	}

	historyShowCmd = &cobra.Command{
		Use:   "show [date]",
		Short: "Show one date's holdings",
		Args:  cobra.ExactArgs(1),
		RunE:  showHistory,
	}

	historyMemosCmd = &cobra.Command{
		Use:   "memos",
		Short: "List stored manager memos",
		RunE:  listMemos,
	}

	memosFull bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyMemosCmd)

	historyMemosCmd.Flags().BoolVar(&memosFull, "full", false, "Print memo bodies")
}

func listHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{silent: true})
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.store.Load(cmd.Context())
	if errors.Is(err, history.ErrNotFound) {
		fmt.Println("No history yet.")
		return nil
	}
	if err != nil {
		return err
	}

	for _, date := range h.Dates() {
		snap := h[date]
		fmt.Printf("  %s  %3d holdings  %6.2f%%\n", date, snap.Len(), snap.TotalWeight())
	}
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{silent: true})
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.store.Load(cmd.Context())
	if err != nil {
		return err
	}

	snap, ok := h[args[0]]
	if !ok {
		return fmt.Errorf("no snapshot for %s", args[0])
	}
	return printJSON(snap)
}

func listMemos(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{silent: true})
	if err != nil {
		return err
	}
	defer a.Close()

	memos, err := a.memos.LoadMemos(cmd.Context())
	if err != nil {
		return err
	}
	if len(memos) == 0 {
		fmt.Println("No memos yet.")
		return nil
	}

	for _, m := range memos {
		fmt.Printf("  %-12s  %s\n", m.Key, m.Title)
		if memosFull {
			fmt.Printf("\n%s\n\n", m.Body)
		}
	}
	return nil
}
