package connections

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/metrics"
)

// counterparty accumulates interaction stats for one address.
type counterparty struct {
	sentCount     int
	receivedCount int
	sentTotal     float64
	receivedTotal float64
	last          time.Time
}

func (c *counterparty) direction() Direction {
	switch {
	case c.sentCount > 0 && c.receivedCount > 0:
		return DirectionBoth
	case c.sentCount > 0:
		return DirectionSentTo
	default:
		return DirectionReceivedFrom
	}
}

// Scanner checks payment counterparties against the blacklist and verified
// community reports.
type Scanner struct {
	blacklist BlacklistStore
	reports   ReportStore
	logger    *slog.Logger
}

// NewScanner creates a connection scanner.
func NewScanner(blacklist BlacklistStore, reports ReportStore, logger *slog.Logger) *Scanner {
	return &Scanner{
		blacklist: blacklist,
		reports:   reports,
		logger:    logger.With("component", "scanner"),
	}
}

// Scan builds the counterparty map from the payment window and flags any
// counterparty matching the blacklist or a verified report. When both match
// the same counterparty the blacklist entry wins; the counterparty is never
// counted twice. Store failures degrade to an empty summary and are logged.
func (s *Scanner) Scan(ctx context.Context, f *facts.AccountFacts) Summary {
	defer metrics.ObserveStage("scan")()

	parties := buildCounterparties(f.Address, f.Payments)
	if len(parties) == 0 {
		return emptySummary()
	}

	addresses := make([]string, 0, len(parties))
	for addr := range parties {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	blacklisted, err := s.blacklist.CheckMany(ctx, addresses)
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues("blacklist").Inc()
		s.logger.Warn("blacklist check failed, skipping connection scan",
			"address", f.Address, "error", err)
		return emptySummary()
	}
	reported, err := s.reports.CheckManyVerified(ctx, addresses)
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues("reports").Inc()
		s.logger.Warn("report check failed, skipping connection scan",
			"address", f.Address, "error", err)
		return emptySummary()
	}

	var conns []Connection
	for _, addr := range addresses {
		cp := parties[addr]
		if entry, ok := blacklisted[addr]; ok {
			conns = append(conns, newConnection(addr, cp, entry.Category, entry.Reason, "blacklist"))
			continue
		}
		if rep, ok := reported[addr]; ok {
			conns = append(conns, newConnection(addr, cp, rep.Category, rep.Description, "report"))
		}
	}

	return summarize(conns)
}

func buildCounterparties(address string, payments []facts.Payment) map[string]*counterparty {
	parties := make(map[string]*counterparty)
	get := func(addr string) *counterparty {
		cp, ok := parties[addr]
		if !ok {
			cp = &counterparty{}
			parties[addr] = cp
		}
		return cp
	}

	for _, p := range payments {
		switch {
		case p.From == address && p.To != "" && p.To != address:
			cp := get(p.To)
			cp.sentCount++
			cp.sentTotal += p.Amount
			if p.At.After(cp.last) {
				cp.last = p.At
			}
		case p.To == address && p.From != "" && p.From != address:
			cp := get(p.From)
			cp.receivedCount++
			cp.receivedTotal += p.Amount
			if p.At.After(cp.last) {
				cp.last = p.At
			}
		}
	}
	return parties
}

func newConnection(addr string, cp *counterparty, category, reason, source string) Connection {
	return Connection{
		CounterpartyAddress: addr,
		ScamCategory:        category,
		Reason:              reason,
		Direction:           cp.direction(),
		InteractionCount:    cp.sentCount + cp.receivedCount,
		CumulativeAmount:    cp.sentTotal + cp.receivedTotal,
		LastInteraction:     cp.last,
		Source:              source,
	}
}

// summarize derives the risk level purely from the connection count, with
// the single-connection case split by direction: having sent funds to a
// scammer is worse than having received them.
func summarize(conns []Connection) Summary {
	if len(conns) == 0 {
		return emptySummary()
	}

	var level RiskLevel
	switch {
	case len(conns) >= 4:
		level = RiskCritical
	case len(conns) >= 2:
		level = RiskHigh
	case conns[0].Direction == DirectionSentTo || conns[0].Direction == DirectionBoth:
		level = RiskHigh
	default:
		level = RiskMedium
	}

	return Summary{
		HasScamConnections: true,
		RiskLevel:          level,
		Connections:        conns,
		Recommendations:    recommendationsFor(level),
	}
}

func emptySummary() Summary {
	return Summary{RiskLevel: RiskNone, Recommendations: recommendationsFor(RiskNone)}
}

func recommendationsFor(level RiskLevel) []string {
	switch level {
	case RiskCritical:
		return []string{
			"Do not send funds to this account",
			"This account transacts with multiple known scam addresses",
			"Report the account if it solicited you",
		}
	case RiskHigh:
		return []string{
			"Avoid transacting with this account",
			"Verify the counterparty through an independent channel before sending funds",
		}
	case RiskMedium:
		return []string{
			"Exercise caution: this account has received funds from a flagged address",
			"Confirm the account owner's identity before transacting",
		}
	default:
		return []string{"No flagged connections found"}
	}
}
