package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

// ChartKind selects the chart family.
type ChartKind string

const (
	ChartBar   ChartKind = "bar"
	ChartPie   ChartKind = "pie"
	ChartRadar ChartKind = "radar"
)

// ChartSpec describes a chart independently of the rendering library. For
// radar charts Labels are the indicators and Max their common maximum.
type ChartSpec struct {
	Kind     ChartKind     `json:"kind"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle,omitempty"`
	Labels   []string      `json:"labels,omitempty"`
	Max      float32       `json:"max,omitempty"`
	Series   []ChartSeries `json:"series"`
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// ChartPoint represents an individual value (optionally labeled).
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

// ChartRenderer turns a ChartSpec into embeddable HTML.
type ChartRenderer interface {
	RenderChart(spec ChartSpec, theme string) (string, error)
}

// EChartsRenderer renders charts server-side with go-echarts.
type EChartsRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// EChartsOption customizes the renderer.
type EChartsOption func(*EChartsRenderer)

// WithChartCache injects a render cache. Pass nil to disable caching.
func WithChartCache(cache RenderCache) EChartsOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the default theme (Westeros when unset).
func WithChartTheme(theme string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.assetsHost = host
	}
}

// NewEChartsRenderer builds a renderer with a five minute chart cache.
func NewEChartsRenderer(options ...EChartsOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache: NewChartCache(5 * time.Minute),
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// RenderChart renders spec, reusing cached HTML for identical inputs.
func (r *EChartsRenderer) RenderChart(spec ChartSpec, theme string) (string, error) {
	if theme == "" {
		theme = r.theme
	}
	render := func() (string, error) {
		return r.render(spec, theme)
	}
	if r.cache == nil {
		return render()
	}
	key := fmt.Sprintf("%s:%s:%s", spec.Kind, theme, payloadHash(spec))
	return r.cache.GetOrRender(key, render)
}

func (r *EChartsRenderer) render(spec ChartSpec, theme string) (string, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("dashboard: chart %q has no series", spec.Title)
	}
	switch spec.Kind {
	case ChartBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalChartOptions(spec, theme)...)
		bar.SetXAxis(spec.Labels)
		for _, s := range spec.Series {
			bar.AddSeries(s.Name, toBarData(s.Points))
		}
		return renderChart(bar)
	case ChartPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(r.globalChartOptions(spec, theme)...)
		for _, s := range spec.Series {
			pie.AddSeries(s.Name, toPieData(s.Points))
		}
		return renderChart(pie)
	case ChartRadar:
		radar := charts.NewRadar()
		global := append(r.globalChartOptions(spec, theme),
			charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: toIndicators(spec.Labels, spec.Max)}))
		radar.SetGlobalOptions(global...)
		for _, s := range spec.Series {
			radar.AddSeries(s.Name, toRadarData(s))
		}
		return renderChart(radar)
	default:
		return "", fmt.Errorf("dashboard: unsupported chart type: %s", spec.Kind)
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *EChartsRenderer) globalChartOptions(spec ChartSpec, theme string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: spec.Subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}

func toPieData(points []ChartPoint) []opts.PieData {
	data := make([]opts.PieData, len(points))
	for i, point := range points {
		name := point.Label
		if name == "" {
			name = fmt.Sprintf("Slice %d", i+1)
		}
		data[i] = opts.PieData{
			Name:  name,
			Value: point.Value,
		}
	}
	return data
}

func toIndicators(labels []string, max float32) []*opts.Indicator {
	indicators := make([]*opts.Indicator, len(labels))
	for i, label := range labels {
		indicators[i] = &opts.Indicator{Name: label, Max: max}
	}
	return indicators
}

func toRadarData(series ChartSeries) []opts.RadarData {
	values := make([]float32, len(series.Points))
	for i, point := range series.Points {
		values[i] = float32(point.Value)
	}
	return []opts.RadarData{{Name: series.Name, Value: values}}
}
