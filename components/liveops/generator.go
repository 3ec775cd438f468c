package liveops

import (
	"context"
	"errors"
	"maps"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultOrderInterval       = 4 * time.Second
	DefaultAlertInterval       = 10 * time.Second
	DefaultAlertProbability    = 0.3
	DefaultOrderCapacity       = 10
	DefaultAlertCapacity       = 5
	DefaultManualAlertCapacity = 10
	DefaultMinAmount           = 50
	DefaultAmountSpan          = 500

	tokenLength   = 9
	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// ErrGeneratorRunning is returned by Start when the loop is already active.
var ErrGeneratorRunning = errors.New("liveops: generator already running")

// DefaultPlatforms lists the ordering channels orders are drawn from.
func DefaultPlatforms() []Platform {
	return []Platform{PlatformTalabat, PlatformFoodics, PlatformInstagram, PlatformBreadfast}
}

// DefaultBranches lists the branches orders and alerts are attributed to.
func DefaultBranches() []string {
	return []string{"Nasr City", "Tagamoa", "Maadi", "Shoubra"}
}

// DefaultSeverities lists the alert severities drawn by the generator.
func DefaultSeverities() []Severity {
	return []Severity{SeverityError, SeverityWarning, SeverityInfo}
}

// DefaultMessages lists the bilingual alert texts drawn by the generator.
func DefaultMessages() []Message {
	return []Message{
		{AR: "خطأ في الماكينة", EN: "Machine Error"},
		{AR: "نقص في المخزون", EN: "Low Stock"},
		{AR: "ازدحام شديد", EN: "Crowd Peak"},
	}
}

// DefaultCounts returns the counter values a new feed starts from. The keys
// match the live tiles, so "insta" is seeded while Instagram orders count
// under "instagram".
func DefaultCounts() map[string]int {
	return map[string]int{
		"foodics":   42,
		"talabat":   18,
		"breadfast": 7,
		"insta":     4,
	}
}

// Options configures a Generator. Zero values fall back to the defaults above.
type Options struct {
	Platforms     []Platform
	Branches      []string
	Severities    []Severity
	Messages      []Message
	OrderInterval time.Duration
	AlertInterval time.Duration
	// AlertProbability gates each alert tick. Zero selects
	// DefaultAlertProbability and a negative value disables generated alerts.
	AlertProbability    float64
	OrderCapacity       int
	AlertCapacity       int
	ManualAlertCapacity int
	MinAmount           int
	AmountSpan          int
	InitialCounts       map[string]int
	Rand                *rand.Rand
	Clock               func() time.Time
	Hook                EventHook
	Telemetry           Telemetry
	Logger              *zap.Logger
}

func (o Options) withDefaults() Options {
	if len(o.Platforms) == 0 {
		o.Platforms = DefaultPlatforms()
	}
	if len(o.Branches) == 0 {
		o.Branches = DefaultBranches()
	}
	if len(o.Severities) == 0 {
		o.Severities = DefaultSeverities()
	}
	if len(o.Messages) == 0 {
		o.Messages = DefaultMessages()
	}
	if o.OrderInterval <= 0 {
		o.OrderInterval = DefaultOrderInterval
	}
	if o.AlertInterval <= 0 {
		o.AlertInterval = DefaultAlertInterval
	}
	switch {
	case o.AlertProbability == 0:
		o.AlertProbability = DefaultAlertProbability
	case o.AlertProbability < 0:
		o.AlertProbability = 0
	}
	if o.AlertProbability > 1 {
		o.AlertProbability = 1
	}
	if o.OrderCapacity <= 0 {
		o.OrderCapacity = DefaultOrderCapacity
	}
	if o.ManualAlertCapacity <= 0 {
		o.ManualAlertCapacity = DefaultManualAlertCapacity
	}
	if o.AlertCapacity <= 0 {
		o.AlertCapacity = DefaultAlertCapacity
	}
	if o.AlertCapacity > o.ManualAlertCapacity {
		o.AlertCapacity = o.ManualAlertCapacity
	}
	if o.MinAmount <= 0 {
		o.MinAmount = DefaultMinAmount
	}
	if o.AmountSpan <= 0 {
		o.AmountSpan = DefaultAmountSpan
	}
	if o.InitialCounts == nil {
		o.InitialCounts = DefaultCounts()
	}
	if o.Rand == nil {
		now := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(now, now>>1))
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
	if o.Hook == nil {
		o.Hook = noopHook{}
	}
	o.Telemetry = normalizeTelemetry(o.Telemetry)
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Generator produces the simulated order and alert feed. State lives for the
// lifetime of the generator; Start and Stop only control the tickers.
type Generator struct {
	opts Options

	mu        sync.Mutex
	rng       *rand.Rand
	orders    *Ring[Order]
	alerts    *Ring[Alert]
	counts    map[string]int
	warned    map[string]bool
	lastStamp time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewGenerator builds a generator with safe defaults.
func NewGenerator(opts Options) *Generator {
	opts = opts.withDefaults()
	return &Generator{
		opts:   opts,
		rng:    opts.Rand,
		orders: NewRing[Order](opts.OrderCapacity),
		alerts: NewRing[Alert](opts.ManualAlertCapacity),
		counts: maps.Clone(opts.InitialCounts),
		warned: map[string]bool{},
	}
}

// Start launches the order and alert tickers. The loop ends when ctx is
// cancelled or Stop is called.
func (g *Generator) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.runningLocked() {
		g.mu.Unlock()
		return ErrGeneratorRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	g.cancel = cancel
	g.done = done
	g.mu.Unlock()

	g.opts.Logger.Info("live feed started",
		zap.Duration("order_interval", g.opts.OrderInterval),
		zap.Duration("alert_interval", g.opts.AlertInterval),
	)
	g.opts.Telemetry.Record(ctx, "liveops.generator.start", nil)
	go g.run(runCtx, done)
	return nil
}

// Stop cancels the tickers and waits for the loop to exit. Calling Stop on
// an idle generator is a no-op.
func (g *Generator) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	g.opts.Logger.Info("live feed stopped")
	g.opts.Telemetry.Record(context.Background(), "liveops.generator.stop", nil)
}

// Running reports whether the ticker loop is active.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runningLocked()
}

func (g *Generator) runningLocked() bool {
	if g.done == nil {
		return false
	}
	select {
	case <-g.done:
		return false
	default:
		return true
	}
}

func (g *Generator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	orders := time.NewTicker(g.opts.OrderInterval)
	defer orders.Stop()
	alerts := time.NewTicker(g.opts.AlertInterval)
	defer alerts.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-orders.C:
			g.GenerateOrder(ctx)
		case <-alerts.C:
			g.TickAlert(ctx)
		}
	}
}

// GenerateOrder draws one random order, prepends it to the order buffer and
// bumps the counter of its platform.
func (g *Generator) GenerateOrder(ctx context.Context) Order {
	g.mu.Lock()
	order := Order{
		ID:        strings.ToUpper(g.tokenLocked()),
		Platform:  g.opts.Platforms[g.rng.IntN(len(g.opts.Platforms))],
		Branch:    g.opts.Branches[g.rng.IntN(len(g.opts.Branches))],
		Amount:    g.opts.MinAmount + g.rng.IntN(g.opts.AmountSpan),
		CreatedAt: g.stampLocked(),
	}
	g.orders.Push(order)
	key := order.Platform.CounterKey()
	_, seeded := g.counts[key]
	g.counts[key]++
	counts := maps.Clone(g.counts)
	warn := !seeded && !g.warned[key]
	if warn {
		g.warned[key] = true
	}
	g.mu.Unlock()

	if warn {
		g.opts.Logger.Warn("platform counter key has no seeded tile",
			zap.String("platform", string(order.Platform)),
			zap.String("key", key),
		)
	}
	g.opts.Telemetry.Record(ctx, "liveops.order.generated", map[string]any{
		"platform": string(order.Platform),
		"branch":   order.Branch,
		"amount":   order.Amount,
	})
	g.publish(ctx, Event{Kind: EventOrder, Order: &order, Counts: counts})
	return order
}

// TickAlert runs one alert draw. It reports false when the Bernoulli gate
// did not fire.
func (g *Generator) TickAlert(ctx context.Context) (Alert, bool) {
	g.mu.Lock()
	if g.rng.Float64() >= g.opts.AlertProbability {
		g.mu.Unlock()
		return Alert{}, false
	}
	msg := g.opts.Messages[g.rng.IntN(len(g.opts.Messages))]
	alert := Alert{
		ID:        g.uniqueAlertIDLocked(),
		Severity:  g.opts.Severities[g.rng.IntN(len(g.opts.Severities))],
		Message:   msg.AR,
		MessageEn: msg.EN,
		Branch:    g.opts.Branches[g.rng.IntN(len(g.opts.Branches))],
		CreatedAt: g.stampLocked(),
	}
	g.alerts.Push(alert)
	g.alerts.Truncate(g.opts.AlertCapacity)
	g.mu.Unlock()

	g.opts.Telemetry.Record(ctx, "liveops.alert.generated", map[string]any{
		"severity": string(alert.Severity),
		"branch":   alert.Branch,
	})
	g.publish(ctx, Event{Kind: EventAlert, Alert: &alert})
	return alert, true
}

// AddAlert inserts a user-reported alert at the head of the alert buffer with
// a fresh id and timestamp.
func (g *Generator) AddAlert(ctx context.Context, input AlertInput) Alert {
	if !input.Severity.Valid() {
		input.Severity = SeverityWarning
	}
	g.mu.Lock()
	alert := Alert{
		ID:        g.uniqueAlertIDLocked(),
		Severity:  input.Severity,
		Message:   input.Message,
		MessageEn: input.MessageEn,
		Branch:    input.Branch,
		CreatedAt: g.stampLocked(),
		Manual:    true,
	}
	g.alerts.Push(alert)
	g.mu.Unlock()

	g.opts.Logger.Info("alert reported",
		zap.String("id", alert.ID),
		zap.String("severity", string(alert.Severity)),
		zap.String("branch", alert.Branch),
	)
	g.opts.Telemetry.Record(ctx, "liveops.alert.reported", map[string]any{
		"severity": string(alert.Severity),
		"branch":   alert.Branch,
	})
	g.publish(ctx, Event{Kind: EventManualAlert, Alert: &alert})
	return alert
}

// Snapshot copies the current buffers and counters.
func (g *Generator) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Orders:    g.orders.Items(),
		Alerts:    g.alerts.Items(),
		Counts:    maps.Clone(g.counts),
		Running:   g.runningLocked(),
		CreatedAt: g.opts.Clock(),
	}
}

// Counts copies the platform counters.
func (g *Generator) Counts() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return maps.Clone(g.counts)
}

func (g *Generator) publish(ctx context.Context, event Event) {
	if err := g.opts.Hook.Publish(ctx, event); err != nil {
		g.opts.Logger.Warn("feed hook failed", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

func (g *Generator) tokenLocked() string {
	b := make([]byte, tokenLength)
	for i := range b {
		b[i] = tokenAlphabet[g.rng.IntN(len(tokenAlphabet))]
	}
	return string(b)
}

func (g *Generator) uniqueAlertIDLocked() string {
	for {
		id := g.tokenLocked()
		taken := false
		for i := range g.alerts.Len() {
			if existing, _ := g.alerts.At(i); existing.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

// stampLocked returns a timestamp strictly after every earlier one so feed
// entries never share a timestamp, even under a coarse or frozen clock.
func (g *Generator) stampLocked() time.Time {
	now := g.opts.Clock()
	if !now.After(g.lastStamp) {
		now = g.lastStamp.Add(time.Nanosecond)
	}
	g.lastStamp = now
	return now
}
