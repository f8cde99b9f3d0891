// Package chart renders the income/expense series of a summary as a pie chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"budgettracker/internal/ledger"
	"budgettracker/internal/summary"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no income or expense to chart")

// Format selects the output encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

var sliceColors = map[ledger.TransactionType]drawing.Color{
	ledger.TransactionTypeIncome:  drawing.ColorFromHex("4CAF50"),
	ledger.TransactionTypeExpense: drawing.ColorFromHex("F44336"),
}

var sliceLabels = map[ledger.TransactionType]string{
	ledger.TransactionTypeIncome:  "Income",
	ledger.TransactionTypeExpense: "Expense",
}

// Render writes the pie chart for s to w.
func Render(w io.Writer, s summary.Summary, format Format) error {
	values := pieValues(s)
	if len(values) == 0 {
		return ErrNoData
	}

	pie := gochart.PieChart{
		Title:  "Income vs Expense",
		Width:  512,
		Height: 512,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Values: values,
	}

	var provider gochart.RendererProvider
	switch format {
	case FormatSVG:
		provider = gochart.SVG
	case FormatPNG, "":
		provider = gochart.PNG
	default:
		return fmt.Errorf("unsupported chart format %q", format)
	}

	if err := pie.Render(provider, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// pieValues converts the summary series into chart values, skipping zero slices.
func pieValues(s summary.Summary) []gochart.Value {
	var values []gochart.Value
	for _, p := range s.Series {
		v, _ := p.Value.Float64()
		if v <= 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s %s", sliceLabels[p.Category], p.Value.StringFixed(2)),
			Value: v,
			Style: gochart.Style{
				FillColor:   sliceColors[p.Category],
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}
	return values
}
