package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/wonny/holdwatch/internal/contracts"
)

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// printResults writes the ranked rows as an aligned table
func printResults(w io.Writer, results []contracts.AttributionResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CODE\tNAME\tOLD%\tNOW%\tTOTAL\tACTIVE\tPASSIVE\tCATEGORY\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%+.2f\t%+.2f\t%+.2f\t%s\t\n",
			r.Code, r.Name, r.OldWeight, r.NowWeight, r.TotalDiff, r.ActiveDiff, r.PassiveDrift, r.Category)
	}
	return tw.Flush()
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
