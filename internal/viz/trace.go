package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sysid/internal/estimate"
)

const (
	graphWidth  = 64
	graphHeight = 10
)

// CostTrace plots the cost history on a log10 axis so early and late
// iterations are both readable.
func CostTrace(costs []float64) string {
	if len(costs) < 2 {
		return ""
	}

	logs := make([]float64, len(costs))
	for i, c := range costs {
		if c <= 0 || math.IsNaN(c) {
			logs[i] = -12
			continue
		}
		logs[i] = math.Log10(c)
	}

	graph := asciigraph.Plot(logs,
		asciigraph.Width(graphWidth),
		asciigraph.Height(graphHeight),
		asciigraph.Caption("log10 cost per iteration"),
	)
	return graphStyle.Render(graph)
}

// Summary renders a completed fit as a bordered panel.
func Summary(model string, names []string, res *estimate.Result) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("fit: %s", model)))
	b.WriteString("\n")

	status := goodStyle
	if res.Reason != estimate.ReasonConverged {
		status = warnStyle
	}
	b.WriteString(labelStyle.Render("status"))
	b.WriteString(status.Render(res.Reason.String()))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("iterations"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", res.Iterations)))
	b.WriteString("\n")

	if n := len(res.Cost); n > 0 {
		b.WriteString(labelStyle.Render("final cost"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.6g", res.Cost[n-1])))
		b.WriteString("\n")
	}

	std := stdDevs(res)
	for i, p := range res.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(names) {
			name = names[i]
		}
		b.WriteString(labelStyle.Render(name))
		if std != nil {
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.6g ± %.3g", p, std[i])))
		} else {
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.6g", p)))
		}
		b.WriteString("\n")
	}

	nz := res.Noise.Diag()
	noise := make([]string, nz)
	for i := 0; i < nz; i++ {
		noise[i] = fmt.Sprintf("%.3g", res.Noise.At(i, i))
	}
	b.WriteString(labelStyle.Render("noise var"))
	b.WriteString(valueStyle.Render(strings.Join(noise, "  ")))

	for _, warn := range res.Warnings {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("warning: " + warn.Message))
	}

	return panelStyle.Render(b.String())
}

func stdDevs(res *estimate.Result) []float64 {
	cov, err := res.Covariance()
	if err != nil {
		return nil
	}
	std := make([]float64, len(res.Params))
	for i := range std {
		v := cov.At(i, i)
		if v < 0 {
			return nil
		}
		std[i] = math.Sqrt(v)
	}
	return std
}
