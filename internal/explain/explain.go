// Package explain turns a finished analysis into human-readable text: a
// short explanation plus an ordered recommendation list. Deterministic
// templates keyed by risk level are the primary path; a generative text
// source can be substituted and falls back to the templates on any failure.
package explain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lumenguard/lumenguard/internal/connections"
	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/metrics"
	"github.com/lumenguard/lumenguard/internal/patterns"
	"github.com/lumenguard/lumenguard/internal/scoring"
)

// Context is the full structured input to explanation generation. A
// generative source receives all of it, never just the score.
type Context struct {
	Address     string
	Score       int
	Level       scoring.Level
	Threats     []patterns.Finding
	Connections connections.Summary
	Facts       *facts.AccountFacts
}

// Generator produces explanations and recommendations.
type Generator struct {
	source TextSource
	logger *slog.Logger
}

// NewGenerator creates a generator. source may be nil; the templates then
// handle everything.
func NewGenerator(source TextSource, logger *slog.Logger) *Generator {
	return &Generator{
		source: source,
		logger: logger.With("component", "explainer"),
	}
}

// Explain produces the explanation text. The generative source, when
// configured, is tried first; any failure falls back to the deterministic
// template so explanation generation itself can never fail an analysis.
func (g *Generator) Explain(ctx context.Context, c Context) string {
	defer metrics.ObserveStage("explain")()

	if g.source != nil {
		text, err := g.source.Generate(ctx, c)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			metrics.EnrichmentFailuresTotal.WithLabelValues("textsource").Inc()
			g.logger.Warn("generative explanation failed, using template",
				"address", c.Address, "error", err)
		}
	}
	return Template(c)
}

// Recommendation returns the short imperative verdict for a level.
func Recommendation(level scoring.Level) string {
	switch level {
	case scoring.LevelCritical:
		return "Do not transact with this account"
	case scoring.LevelHigh:
		return "Avoid transacting unless you can independently verify the counterparty"
	case scoring.LevelMedium:
		return "Proceed with caution and verify before sending significant amounts"
	case scoring.LevelLow:
		return "Proceed normally but note the account's limited history"
	default:
		return "No elevated risk detected"
	}
}

// Recommendations builds the ordered recommendation list: the level verdict
// first, then threat-specific advice, then connection advice.
func Recommendations(c Context) []string {
	out := []string{Recommendation(c.Level)}

	for _, threat := range c.Threats {
		if advice := threatAdvice(threat.Name); advice != "" {
			out = append(out, advice)
		}
	}
	if c.Connections.HasScamConnections {
		out = append(out, c.Connections.Recommendations...)
	}
	return dedupe(out)
}

// Template renders the deterministic explanation for a level. Each level has
// a fixed message pattern referencing the account's age and history where
// relevant.
func Template(c Context) string {
	age := ageText(c.Facts)
	txCount := 0
	if c.Facts != nil {
		txCount = c.Facts.Activity.TotalTransactions
	}

	switch c.Level {
	case scoring.LevelCritical:
		return fmt.Sprintf(
			"This account scored %d out of 100, placing it at CRITICAL risk. %s and it has %d transactions on record. %s Sending funds to this account is very likely to result in loss.",
			c.Score, age, txCount, threatSentence(c.Threats))
	case scoring.LevelHigh:
		return fmt.Sprintf(
			"This account scored %d out of 100, indicating HIGH risk. %s and it has %d transactions on record. %s Independent verification is strongly advised before any transfer.",
			c.Score, age, txCount, threatSentence(c.Threats))
	case scoring.LevelMedium:
		return fmt.Sprintf(
			"This account scored %d out of 100, a MEDIUM risk level. %s and it has %d transactions, which limits the confidence of the assessment. Treat larger transfers with extra care.",
			c.Score, age, txCount)
	case scoring.LevelLow:
		return fmt.Sprintf(
			"This account scored %d out of 100, a LOW risk level. %s with %d transactions and no serious fraud indicators. Normal caution applies.",
			c.Score, age, txCount)
	default:
		return fmt.Sprintf(
			"This account scored %d out of 100 and appears SAFE. %s with an established history of %d transactions and no fraud indicators were found.",
			c.Score, age, txCount)
	}
}

func ageText(f *facts.AccountFacts) string {
	if f == nil {
		return "The account's age is unknown"
	}
	switch {
	case f.AgeDays == 0:
		return "The account was created today"
	case f.AgeDays == 1:
		return "The account is 1 day old"
	default:
		return fmt.Sprintf("The account is %d days old", f.AgeDays)
	}
}

func threatSentence(threats []patterns.Finding) string {
	if len(threats) == 0 {
		return "The elevated score comes from contextual risk factors rather than a specific fraud pattern."
	}
	names := make([]string, 0, len(threats))
	for _, t := range threats {
		names = append(names, strings.ReplaceAll(t.Name, "_", " "))
	}
	if len(names) == 1 {
		return fmt.Sprintf("Analysis flagged a %s pattern.", names[0])
	}
	return fmt.Sprintf("Analysis flagged %d fraud patterns: %s.", len(names), strings.Join(names, ", "))
}

func threatAdvice(name string) string {
	switch name {
	case "drain_wallet":
		return "Funds sent here are typically forwarded within minutes and are unrecoverable"
	case "phishing_trustline":
		return "Do not accept or interact with unsolicited airdrop assets"
	case "ponzi_flow":
		return "Payment flow matches a collection scheme; expect no payout"
	case "fake_exchange":
		return "Verify exchange deposit addresses only through the exchange's official site"
	case "honeypot_token":
		return "Assets held through this account can be frozen or clawed back by the issuer"
	case "rapid_creation":
		return "Treat requests from accounts created in the last days as unsolicited"
	case "address_similarity":
		return "Compare the full address character by character against your intended recipient"
	default:
		return ""
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
