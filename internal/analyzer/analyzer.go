// Package analyzer orchestrates the full risk pipeline: collect on-chain
// facts, enrich with reputation signals, run the detector battery, scan
// counterparty connections, score, and explain.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenguard/lumenguard/internal/connections"
	"github.com/lumenguard/lumenguard/internal/enrich"
	"github.com/lumenguard/lumenguard/internal/explain"
	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/horizon"
	"github.com/lumenguard/lumenguard/internal/idgen"
	"github.com/lumenguard/lumenguard/internal/metrics"
	"github.com/lumenguard/lumenguard/internal/patterns"
	"github.com/lumenguard/lumenguard/internal/scoring"
	"github.com/lumenguard/lumenguard/internal/traces"
	"go.opentelemetry.io/otel/trace"
)

// unfundedScore is the fixed elevated score for addresses with no ledger
// presence. An unfunded address is itself a risk signal: nothing about it
// can be verified, and scam kits rotate through fresh addresses.
const unfundedScore = 65

// Collector produces the on-chain facts snapshot.
type Collector interface {
	Collect(ctx context.Context, address string) (*facts.AccountFacts, error)
}

// Enricher produces the best-effort reputation signal.
type Enricher interface {
	Enrich(ctx context.Context, f *facts.AccountFacts) *enrich.Signal
}

// Scanner produces the counterparty connection summary.
type Scanner interface {
	Scan(ctx context.Context, f *facts.AccountFacts) connections.Summary
}

// Broadcaster pushes completed analyses to live subscribers.
type Broadcaster interface {
	BroadcastAnalysis(r *Result)
}

// Analyzer runs the pipeline.
type Analyzer struct {
	collector Collector
	enricher  Enricher
	battery   *patterns.Battery
	scanner   Scanner
	explainer *explain.Generator
	store     Store
	hub       Broadcaster
	network   string
	logger    *slog.Logger
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithStore enables persistence of results to an audit log.
func WithStore(s Store) Option {
	return func(a *Analyzer) { a.store = s }
}

// WithBroadcaster enables pushing completed analyses to live subscribers.
func WithBroadcaster(b Broadcaster) Option {
	return func(a *Analyzer) { a.hub = b }
}

// New wires the pipeline together.
func New(
	collector Collector,
	enricher Enricher,
	battery *patterns.Battery,
	scanner Scanner,
	explainer *explain.Generator,
	network string,
	logger *slog.Logger,
	opts ...Option,
) *Analyzer {
	a := &Analyzer{
		collector: collector,
		enricher:  enricher,
		battery:   battery,
		scanner:   scanner,
		explainer: explainer,
		network:   network,
		logger:    logger.With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline for one address.
//
// Facts collection is the hard dependency: an upstream failure there fails
// the analysis (horizon.ErrUpstreamUnavailable). An address with no ledger
// presence produces a degraded-but-labeled elevated result rather than an
// error. Enrichment and the connection scan run concurrently once facts are
// in; both are best-effort. Scoring and explanation are sequential final
// steps.
func (a *Analyzer) Analyze(ctx context.Context, address string, txCtx *TxContext) (*Result, error) {
	start := time.Now()
	ctx, span := traces.StartSpan(ctx, "analyze",
		traces.Account(address), traces.Network(a.network))
	defer span.End()

	collectCtx, collectSpan := traces.StartSpan(ctx, "collect", traces.Stage("collect"))
	f, err := a.collector.Collect(collectCtx, address)
	collectSpan.End()
	if errors.Is(err, horizon.ErrAccountNotFound) {
		res := a.unfundedResult(address, txCtx)
		a.finish(ctx, res, span, start)
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", address, err)
	}

	// Enrichment and the connection scan are independent of each other.
	var (
		wg      sync.WaitGroup
		signal  *enrich.Signal
		summary connections.Summary
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sctx, sspan := traces.StartSpan(ctx, "enrich", traces.Stage("enrich"))
		defer sspan.End()
		signal = a.enricher.Enrich(sctx, f)
	}()
	go func() {
		defer wg.Done()
		sctx, sspan := traces.StartSpan(ctx, "scan", traces.Stage("scan"))
		defer sspan.End()
		summary = a.scanner.Scan(sctx, f)
	}()
	wg.Wait()

	findings := dedupeFindings(a.battery.Run(f, signal))
	assessment := patterns.Assess(findings)
	outcome := scoring.Score(scoring.Inputs{Facts: f, Signal: signal, Assessment: assessment})

	for _, threat := range findings {
		metrics.ThreatsDetectedTotal.WithLabelValues(threat.Name).Inc()
	}

	ec := explain.Context{
		Address:     address,
		Score:       outcome.Score,
		Level:       outcome.Level,
		Threats:     findings,
		Connections: summary,
		Facts:       f,
	}

	res := &Result{
		Address:         address,
		Network:         a.network,
		RiskScore:       outcome.Score,
		RiskLevel:       outcome.Level,
		Threats:         findings,
		Connections:     summary,
		Recommendation:  explain.Recommendation(outcome.Level),
		Recommendations: explain.Recommendations(ec),
		Explanation:     a.explainer.Explain(ctx, ec),
		Contributions:   outcome.Contributions,
		Facts:           f,
		Signal:          signal,
		TxContext:       txCtx,
		AnalyzedAt:      time.Now(),
	}

	a.finish(ctx, res, span, start)
	return res, nil
}

// History returns past persisted analyses for an address.
func (a *Analyzer) History(ctx context.Context, address string, limit int) ([]*Record, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.ListByAddress(ctx, address, limit)
}

// unfundedResult builds the fixed elevated result for addresses that were
// never funded.
func (a *Analyzer) unfundedResult(address string, txCtx *TxContext) *Result {
	level := scoring.LevelFor(unfundedScore)
	threat := patterns.Finding{
		Name:        "unfunded_account",
		Severity:    patterns.SeverityHigh,
		Description: "Address has no ledger presence",
		Confidence:  unfundedScore,
		Evidence:    []string{"account record not found on the ledger"},
	}
	return &Result{
		Address:        address,
		Network:        a.network,
		RiskScore:      unfundedScore,
		RiskLevel:      level,
		Threats:        []patterns.Finding{threat},
		Connections:    connections.Summary{RiskLevel: connections.RiskNone},
		Recommendation: explain.Recommendation(level),
		Recommendations: []string{
			explain.Recommendation(level),
			"This address has never been funded; nothing about it can be verified",
			"Confirm the address with its claimed owner before sending anything",
		},
		Explanation: fmt.Sprintf(
			"This address has no presence on the %s ledger: it has never been funded and has no history to assess. It scored %d out of 100 because unknown addresses cannot be distinguished from freshly generated scam addresses. Verify the address through an independent channel before transacting.",
			a.network, unfundedScore),
		AnalyzedAt: time.Now(),
	}
}

// finish records metrics, persists the result, and notifies subscribers.
// Persistence failures are logged, never surfaced.
func (a *Analyzer) finish(ctx context.Context, res *Result, span trace.Span, start time.Time) {
	metrics.AnalysesTotal.WithLabelValues(string(res.RiskLevel)).Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(traces.RiskScore(res.RiskScore), traces.RiskLevel(string(res.RiskLevel)))

	a.logger.Info("analysis completed",
		"address", res.Address,
		"score", res.RiskScore,
		"level", res.RiskLevel,
		"threats", len(res.Threats),
		"duration_ms", time.Since(start).Milliseconds())

	if a.store != nil {
		payload, err := json.Marshal(res)
		if err == nil {
			err = a.store.Save(ctx, &Record{
				ID:        idgen.WithPrefix("an_"),
				Address:   res.Address,
				Network:   res.Network,
				Score:     res.RiskScore,
				Level:     string(res.RiskLevel),
				Result:    payload,
				CreatedAt: res.AnalyzedAt,
			})
		}
		if err != nil {
			a.logger.Warn("failed to persist analysis", "address", res.Address, "error", err)
		}
	}

	if a.hub != nil {
		a.hub.BroadcastAnalysis(res)
	}
}
