package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Page or chart title
	SeriesName string   // Name of the bar series
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Colors     []string // Custom colors, cycled per chart
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		SeriesName: "Usage %",
		Width:      "900px",
		Height:     "400px",
		Theme:      "light",
		ShowLegend: false,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// DataPoint represents a single bar.
type DataPoint struct {
	Label string
	Value float64
}

// BarGroup is one bar chart on a page.
type BarGroup struct {
	Title    string
	Subtitle string
	Points   []DataPoint
}

func newBar(group BarGroup, config ChartConfig, color string) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    group.Title,
			Subtitle: group.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors{color}),
	)

	xLabels := make([]string, len(group.Points))
	yData := make([]opts.BarData, len(group.Points))
	for i, point := range group.Points {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
	}

	bar.SetXAxis(xLabels).
		AddSeries(config.SeriesName, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)

	return bar
}

// RenderBarChart creates an interactive bar chart HTML file.
func RenderBarChart(data []DataPoint, config ChartConfig, outputPath string) error {
	color := "#5470C6"
	if len(config.Colors) > 0 {
		color = config.Colors[0]
	}
	bar := newBar(BarGroup{Title: config.Title, Points: data}, config, color)

	return renderTo(outputPath, func(w io.Writer) error { return bar.Render(w) })
}

// RenderBarPage creates one HTML page holding a bar chart per group.
func RenderBarPage(groups []BarGroup, config ChartConfig, outputPath string) error {
	if len(groups) == 0 {
		return fmt.Errorf("no chart groups provided")
	}

	page := components.NewPage()
	if config.Title != "" {
		page.PageTitle = config.Title
	}
	for i, g := range groups {
		color := "#5470C6"
		if len(config.Colors) > 0 {
			color = config.Colors[i%len(config.Colors)]
		}
		page.AddCharts(newBar(g, config, color))
	}

	return renderTo(outputPath, func(w io.Writer) error { return page.Render(w) })
}

func renderTo(outputPath string, render func(io.Writer) error) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
