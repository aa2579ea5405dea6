package train

import (
	"fmt"
	"os"

	chart "github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"
)

// PlotHistory renders the loss and F1 curves of a run as a PNG file.
func PlotHistory(h *History, path string) error {
	if h.Epochs() == 0 {
		return fmt.Errorf("plot: empty history")
	}

	xs := make([]float64, h.Epochs())
	for i := range xs {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Title:      "training curves",
		TitleStyle: chart.StyleShow(),
		XAxis: chart.XAxis{
			Name:      "epoch",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
		},
		YAxis: chart.YAxis{
			Style: chart.StyleShow(),
		},
		Series: []chart.Series{
			series("train loss", xs, h.TrainLoss, chart.ColorBlue),
			series("val loss", xs, h.ValLoss, chart.ColorRed),
			series("train F1", xs, h.TrainF1, chart.ColorGreen),
			series("val F1", xs, h.ValF1, chart.ColorOrange),
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: create %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("plot: render: %w", err)
	}
	return nil
}

func series(name string, xs, ys []float64, color drawing.Color) chart.Series {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			Show:        true,
			StrokeColor: color,
		},
	}
}
