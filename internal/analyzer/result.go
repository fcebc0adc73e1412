package analyzer

import (
	"time"

	"github.com/lumenguard/lumenguard/internal/connections"
	"github.com/lumenguard/lumenguard/internal/enrich"
	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/patterns"
	"github.com/lumenguard/lumenguard/internal/scoring"
)

// TxContext is optional caller-supplied context about an intended
// transaction. Advisory only; echoed back in the result.
type TxContext struct {
	SenderAddress string  `json:"senderAddress,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	AssetCode     string  `json:"assetCode,omitempty"`
}

// Result is the sealed output of one analysis run. Created once, never
// mutated; callers may persist it.
type Result struct {
	Address string `json:"address"`
	Network string `json:"network"`

	RiskScore int           `json:"riskScore"` // 0-100
	RiskLevel scoring.Level `json:"riskLevel"`

	// Threats is deduplicated by finding name across all sources.
	Threats     []patterns.Finding  `json:"threats"`
	Connections connections.Summary `json:"connections"`

	Recommendation  string   `json:"recommendation"`
	Recommendations []string `json:"recommendations"`
	Explanation     string   `json:"explanation"`

	// Contributions expose the additive score breakdown for audit.
	Contributions []scoring.Contribution `json:"contributions,omitempty"`

	// Facts and Signal are included so callers can see what the verdict
	// was based on. Signal is nil when enrichment produced nothing; its
	// absence doubles as the error-visibility mechanism for enrichment
	// failures.
	Facts  *facts.AccountFacts `json:"facts,omitempty"`
	Signal *enrich.Signal      `json:"signal,omitempty"`

	TxContext *TxContext `json:"txContext,omitempty"`

	AnalyzedAt time.Time `json:"analyzedAt"`
}

// dedupeFindings keeps the first finding per name, preserving order.
func dedupeFindings(in []patterns.Finding) []patterns.Finding {
	seen := make(map[string]struct{}, len(in))
	out := make([]patterns.Finding, 0, len(in))
	for _, f := range in {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, f)
	}
	return out
}
