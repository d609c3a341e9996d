package terminal

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
)

const scoreFormat = 'f'

// RenderSeriesTable renders one row per non-empty series with its sample
// count, latest, minimum, maximum and smoothed values. An empty string is
// returned when no series has points.
func RenderSeriesTable(series []convergence.Series) string {
	summaries := convergence.Summarize(series)
	if len(summaries) == 0 {
		return ""
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	tbl.AppendHeader(table.Row{"Metric", "Points", "Last", "Min", "Max", "Smoothed"})

	for _, s := range summaries {
		tbl.AppendRow(table.Row{
			s.Label,
			s.Count,
			score(s.Last),
			score(s.Min),
			score(s.Max),
			score(s.Smoothed),
		})
	}

	return tbl.Render()
}

func score(v float64) string {
	return strconv.FormatFloat(v, scoreFormat, 3, 64)
}
