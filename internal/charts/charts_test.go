package charts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderBarChart(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "bar.html")
	data := []DataPoint{
		{Label: "Hog Rider", Value: 87.5},
		{Label: "The Log", Value: 62.5},
	}

	config := DefaultChartConfig()
	config.Title = "Archetype 0"

	if err := RenderBarChart(data, config, outputPath); err != nil {
		t.Fatalf("RenderBarChart failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read chart: %v", err)
	}
	if !strings.Contains(string(content), "Hog Rider") {
		t.Error("Expected chart to contain bar label")
	}
}

func TestRenderBarPage(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "nested", "archetypes.html")
	groups := []BarGroup{
		{Title: "Archetype 0", Points: []DataPoint{{Label: "Golem", Value: 100}}},
		{Title: "Archetype 1", Points: []DataPoint{{Label: "X-Bow", Value: 50}}},
	}

	if err := RenderBarPage(groups, DefaultChartConfig(), outputPath); err != nil {
		t.Fatalf("RenderBarPage failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read chart page: %v", err)
	}
	for _, want := range []string{"Golem", "X-Bow"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}

func TestRenderBarPage_NoGroups(t *testing.T) {
	if err := RenderBarPage(nil, DefaultChartConfig(), filepath.Join(t.TempDir(), "x.html")); err == nil {
		t.Error("Expected error for empty page")
	}
}
