package compliance

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

const notDetected = "no detectado"

// itemText is the value shown for one category, eg: "no-helmet: 0.85"
func (c CategoryStatus) itemText() string {
	if c.Status == Unknown {
		return fmt.Sprintf("%s: %s", c.Pair.Category, notDetected)
	}
	return fmt.Sprintf("%s: %.2f", c.Label(), c.Confidence)
}

// FormatReport renders the records as the operator facing text list.
// Each person is headed by their track ID and followed by one line per
// equipment category and a blank line.
func FormatReport(records []PersonRecord) string {

	var b strings.Builder

	fmt.Fprintf(&b, "Detectadas: %d persona(s)\n", len(records))

	for _, rec := range records {
		fmt.Fprintf(&b, "\nPersona %d:\n", rec.TrackID)

		for _, item := range rec.Items {
			b.WriteString("  " + item.itemText() + "\n")
		}
	}

	return b.String()
}

// ReportLines splits the text report into lines for list style displays
func ReportLines(records []PersonRecord) []string {
	return strings.Split(strings.TrimRight(FormatReport(records), "\n"), "\n")
}

// FormatTable renders the records as a terminal table with one row per
// person and one column per equipment category
func FormatTable(records []PersonRecord) string {

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"ID"}
	for _, pair := range postprocess.EquipmentPairs {
		header = append(header, pair.Category)
	}
	tw.AppendHeader(header)

	for _, rec := range records {
		row := table.Row{rec.TrackID}

		for _, item := range rec.Items {
			switch item.Status {
			case Unknown:
				row = append(row, "-")
			default:
				row = append(row, fmt.Sprintf("%s %.2f", item.Label(), item.Confidence))
			}
		}

		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
