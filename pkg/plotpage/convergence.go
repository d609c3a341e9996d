package plotpage

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
)

const convergenceYAxis = "Score"

// BuildConvergenceChart draws one line per series over a numeric index axis
// with scores in [0, 1]. If cOpts is nil, DefaultChartOpts() is used.
func BuildConvergenceChart(cOpts *ChartOpts, series []convergence.Series, axisLabel string) *charts.Line {
	if cOpts == nil {
		cOpts = DefaultChartOpts()
	}

	theme := cOpts.Theme()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init()),
		charts.WithTooltipOpts(cOpts.Tooltip("axis")),
		charts.WithGridOpts(cOpts.Grid()),
		charts.WithDataZoomOpts(cOpts.DataZoom()...),
		charts.WithXAxisOpts(cOpts.ValueXAxis(axisLabel, float64(convergence.MaxIndex(series)))),
		charts.WithYAxisOpts(cOpts.UnitYAxis(convergenceYAxis)),
		charts.WithLegendOpts(cOpts.Legend()),
	)

	for i, s := range series {
		data := make([]opts.LineData, len(s.Points))
		for j, p := range s.Points {
			data[j] = opts.LineData{Value: []any{p.Index, p.Value}}
		}

		color := theme.SeriesColor(i)

		line.AddSeries(s.Label, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}

	return line
}
