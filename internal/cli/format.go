package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/meur/tiermaker/internal/board"
	"github.com/meur/tiermaker/internal/models"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	_, _ = successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	_, _ = warningColor.Fprintf(w, "⚠ "+format+"\n", args...)
}

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stepName(step int) string {
	if step >= models.StepSortItems {
		return "sort items"
	}
	return "build tiers"
}

// printTiers lists tiers in priority order.
func printTiers(w io.Writer, doc models.Document) {
	if len(doc.Tiers) == 0 {
		fmt.Fprintln(w, "No tiers")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tLABEL\tCOLOR\tITEMS")
	for i, t := range doc.Tiers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i, t.ID, t.Label, t.Color, len(t.Items))
	}
	_ = tw.Flush()
}

func printItems(w io.Writer, items []models.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTIER\tIMAGE")
	for _, it := range items {
		tier := "-"
		if it.TierID != nil {
			tier = *it.TierID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, tier, it.Image)
	}
	_ = tw.Flush()
}

// printBoard renders every tier with its members, then the unassigned pool.
func printBoard(w io.Writer, doc models.Document) {
	_, _ = headerColor.Fprintf(w, "▸ Step %d: %s\n", doc.Step, stepName(doc.Step))
	for _, t := range doc.Tiers {
		_, _ = color.New(color.Bold).Fprintf(w, "%-8s", t.Label)
		members := board.Members(doc, t.ID)
		if len(members) == 0 {
			_, _ = dimColor.Fprint(w, " (empty)")
		}
		for _, it := range members {
			fmt.Fprintf(w, " [%s]", it.Name)
		}
		fmt.Fprintln(w)
	}
	pool := board.Unassigned(doc)
	fmt.Fprintf(w, "Unassigned (%d):", len(pool))
	for _, it := range pool {
		fmt.Fprintf(w, " [%s]", it.Name)
	}
	fmt.Fprintln(w)
	if !doc.ShowImporter {
		_, _ = dimColor.Fprintln(w, "importer hidden")
	}
}
