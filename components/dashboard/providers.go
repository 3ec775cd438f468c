package dashboard

import (
	"context"
	"fmt"

	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/reference"
	"github.com/shopspring/decimal"
)

// liveTiles lists the counter tiles in display order. The Social DM tile
// reads the seeded "insta" key.
var liveTiles = []string{"foodics", "talabat", "breadfast", "insta"}

func defaultProviders() map[Tab]Provider {
	return map[Tab]Provider{
		TabOverview:   ProviderFunc(overviewPanel),
		TabLive:       ProviderFunc(livePanel),
		TabBranches:   ProviderFunc(branchesPanel),
		TabFinancials: ProviderFunc(financialsPanel),
		TabOperations: ProviderFunc(operationsPanel),
		TabMarket:     ProviderFunc(marketPanel),
	}
}

func overviewPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	doc := meta.Reference
	cards := make([]map[string]any, 0, len(doc.Overview.Cards))
	for _, card := range doc.Overview.Cards {
		cards = append(cards, map[string]any{
			"key":   card.Key,
			"label": meta.T(ctx, "overview.card."+card.Key),
			"value": card.Value,
			"trend": card.Trend,
		})
	}
	return PanelData{
		"title":      meta.T(ctx, "overview.welcome"),
		"branches":   doc.Overview.Branches,
		"efficiency": doc.Overview.Efficiency,
		"cards":      cards,
		"alerts":     localizedAlerts(meta.Live.Alerts, meta.Language()),
	}, nil
}

func livePanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	labels := make([]string, 0, len(liveTiles))
	points := make([]ChartPoint, 0, len(liveTiles))
	tiles := make([]map[string]any, 0, len(liveTiles))
	for _, key := range liveTiles {
		label := meta.T(ctx, "live.tile."+key)
		count := meta.Live.Counts[key]
		labels = append(labels, label)
		points = append(points, ChartPoint{Label: label, Value: float64(count)})
		tiles = append(tiles, map[string]any{"key": key, "label": label, "count": count})
	}
	data := PanelData{
		"title":   meta.T(ctx, "live.title"),
		"tiles":   tiles,
		"orders":  meta.Live.Orders,
		"alerts":  localizedAlerts(meta.Live.Alerts, meta.Language()),
		"running": meta.Live.Running,
	}
	return withChart(data, meta.Charts, "chart", ChartSpec{
		Kind:   ChartBar,
		Title:  meta.T(ctx, "live.counters"),
		Labels: labels,
		Series: []ChartSeries{{Name: meta.T(ctx, "live.counters"), Points: points}},
	})
}

func branchesPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	lang := meta.Language()
	branches := make([]map[string]any, 0, len(meta.Reference.Branches))
	for _, b := range meta.Reference.Branches {
		branches = append(branches, map[string]any{
			"id":      b.ID,
			"name":    BranchName(b, lang),
			"address": BranchAddress(b, lang),
			"type":    b.Type,
			"hours":   b.Hours,
			"status":  b.Status,
			"label":   meta.T(ctx, "branches.status."+b.Status),
		})
	}
	return PanelData{
		"title":    meta.T(ctx, "branches.title"),
		"branches": branches,
	}, nil
}

func financialsPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	lang := meta.Language()
	fin := meta.State.Financials
	band, ok := meta.Reference.PayrollFor(fin.Role)
	if !ok {
		return nil, fmt.Errorf("dashboard: unknown payroll role %q", fin.Role)
	}
	rows := make([]map[string]any, 0, len(meta.Reference.Payroll))
	payrollLabels := make([]string, 0, len(meta.Reference.Payroll))
	salaries := make([]ChartPoint, 0, len(meta.Reference.Payroll))
	trainings := make([]ChartPoint, 0, len(meta.Reference.Payroll))
	for _, b := range meta.Reference.Payroll {
		title := payrollTitle(b, lang)
		payrollLabels = append(payrollLabels, title)
		salaries = append(salaries, ChartPoint{Label: title, Value: float64(b.Salary)})
		trainings = append(trainings, ChartPoint{Label: title, Value: float64(b.Training)})
		rows = append(rows, map[string]any{
			"role":     b.Role,
			"title":    title,
			"salary":   FormatEGP(decimal.NewFromInt(b.Salary)),
			"training": FormatEGP(decimal.NewFromInt(b.Training)),
			"selected": b.Role == band.Role,
		})
	}
	impact := PayrollImpact(decimal.NewFromInt(band.Training), fin.Months)
	delta := WasteDelta(fin.WasteLevel)

	points := make([]ChartPoint, 0, len(meta.Reference.ProfitLoss))
	for _, share := range meta.Reference.ProfitLoss {
		points = append(points, ChartPoint{Label: meta.T(ctx, "pnl."+share.Key), Value: share.Value})
	}
	data := PanelData{
		"title":   meta.T(ctx, "financials.title"),
		"payroll": rows,
		"scenario": map[string]any{
			"role":    band.Role,
			"months":  fin.Months,
			"impact":  impact.IntPart(),
			"display": FormatEGP(impact),
		},
		"waste": map[string]any{
			"level":    fin.WasteLevel,
			"delta":    delta.IntPart(),
			"display":  FormatEGP(delta),
			"positive": !delta.IsNegative(),
		},
	}
	data, err := withChart(data, meta.Charts, "payroll_chart", ChartSpec{
		Kind:   ChartBar,
		Title:  meta.T(ctx, "financials.payroll"),
		Labels: payrollLabels,
		Series: []ChartSeries{
			{Name: meta.T(ctx, "financials.salary"), Points: salaries},
			{Name: meta.T(ctx, "financials.training"), Points: trainings},
		},
	})
	if err != nil {
		return nil, err
	}
	return withChart(data, meta.Charts, "chart", ChartSpec{
		Kind:   ChartPie,
		Title:  meta.T(ctx, "financials.pnl"),
		Series: []ChartSeries{{Name: meta.T(ctx, "financials.pnl"), Points: points}},
	})
}

func operationsPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	button := meta.T(ctx, "operations.sync")
	if meta.State.Syncing {
		button = meta.T(ctx, "operations.syncing")
	}
	return PanelData{
		"title":   meta.T(ctx, "operations.title"),
		"button":  button,
		"syncing": meta.State.Syncing,
		"lines":   append([]string{}, meta.State.SyncLog...),
	}, nil
}

func marketPanel(ctx context.Context, meta PanelContext) (PanelData, error) {
	market := meta.Reference.Market
	labels := make([]string, len(market.Indicators))
	for i, key := range market.Indicators {
		labels[i] = meta.T(ctx, "market.indicator."+key)
	}
	series := make([]ChartSeries, 0, len(market.Series))
	for _, s := range market.Series {
		points := make([]ChartPoint, len(s.Values))
		for i, v := range s.Values {
			points[i] = ChartPoint{Label: labels[i], Value: float64(v)}
		}
		series = append(series, ChartSeries{Name: meta.T(ctx, "market.series."+s.Key), Points: points})
	}
	data := PanelData{
		"title":      meta.T(ctx, "market.title"),
		"indicators": labels,
		"series":     series,
	}
	return withChart(data, meta.Charts, "chart", ChartSpec{
		Kind:   ChartRadar,
		Title:  meta.T(ctx, "market.title"),
		Labels: labels,
		Max:    market.Max,
		Series: series,
	})
}

// withChart stores spec under key and, when a renderer is configured, the
// rendered HTML under key+"_html".
func withChart(data PanelData, renderer ChartRenderer, key string, spec ChartSpec) (PanelData, error) {
	data[key] = spec
	if renderer == nil {
		return data, nil
	}
	html, err := renderer.RenderChart(spec, "")
	if err != nil {
		return nil, err
	}
	data[key+"_html"] = html
	return data, nil
}

func localizedAlerts(alerts []liveops.Alert, lang Language) []map[string]any {
	out := make([]map[string]any, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, map[string]any{
			"id":        alert.ID,
			"type":      alert.Severity,
			"message":   AlertMessage(alert, lang),
			"branch":    alert.Branch,
			"timestamp": alert.CreatedAt,
			"manual":    alert.Manual,
		})
	}
	return out
}

func payrollTitle(band reference.PayrollBand, lang Language) string {
	return ResolveLocalizedValue(map[string]string{"ar": band.Title, "en": band.TitleEn}, string(lang), band.TitleEn)
}
