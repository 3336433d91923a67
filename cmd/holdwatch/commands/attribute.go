package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/holdwatch/internal/attribution"
	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/internal/report"
)

// attributeCmd represents the attribute command
var attributeCmd = &cobra.Command{
	Use:   "attribute",
	Short: "Attribute two snapshot files offline",
	Long: `Runs the attribution engine on two snapshot files without scraping,
looking up returns, or touching the history store.

A snapshot file is either a JSON array of {"code","name","weight_pct"} or a
{"date": ..., "holdings": [...]} object. The returns file maps code to a
fractional daily return; missing codes count as 0.

Example:
  go run ./cmd/holdwatch attribute --today t.json --yesterday y.json --returns r.json`,
	RunE: runAttribute,
}

var (
	attrToday     string
	attrYesterday string
	attrReturns   string
	attrOutput    string
)

func init() {
	rootCmd.AddCommand(attributeCmd)

	attributeCmd.Flags().StringVar(&attrToday, "today", "", "today's snapshot file (required)")
	attributeCmd.Flags().StringVar(&attrYesterday, "yesterday", "", "yesterday's snapshot file (empty = cold start)")
	attributeCmd.Flags().StringVar(&attrReturns, "returns", "", "returns file {code: fraction}")
	attributeCmd.Flags().StringVarP(&attrOutput, "output", "o", "text", "output format (text|json|markdown)")
	_ = attributeCmd.MarkFlagRequired("today")
}

func runAttribute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	today, err := readSnapshotFile(attrToday)
	if err != nil {
		return err
	}

	var yesterday contracts.Snapshot
	if attrYesterday != "" {
		if yesterday, err = readSnapshotFile(attrYesterday); err != nil {
			return err
		}
	}

	returns := attribution.StaticReturns{}
	if attrReturns != "" {
		data, err := os.ReadFile(attrReturns)
		if err != nil {
			return fmt.Errorf("read returns: %w", err)
		}
		if err := json.Unmarshal(data, &returns); err != nil {
			return fmt.Errorf("parse returns %s: %w", attrReturns, err)
		}
	}

	th := thresholdsFromConfig(cfg)
	if err := th.Validate(); err != nil {
		return err
	}

	results, err := attribution.NewEngine(th).Attribute(today, yesterday, returns)
	if err != nil {
		return err
	}

	switch attrOutput {
	case "json":
		return printJSON(results)
	case "markdown":
		md, err := report.Markdown(today.Date, yesterday.Date, results, attribution.Summarize(results), nil)
		if err != nil {
			return err
		}
		fmt.Print(md)
		return nil
	}

	if len(results) == 0 {
		fmt.Println("Nothing changed beyond noise.")
		return nil
	}
	return printResults(os.Stdout, results)
}

// readSnapshotFile accepts a bare holdings array or a snapshot object
func readSnapshotFile(path string) (contracts.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var holdings []contracts.Holding
		if err := json.Unmarshal(data, &holdings); err != nil {
			return contracts.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
		}
		return contracts.NewSnapshot("", holdings), nil
	}

	var snap contracts.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return contracts.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return contracts.NewSnapshot(snap.Date, snap.Holdings), nil
}
