// Package scoring combines every upstream signal into one bounded risk
// score. The model is strictly additive: each adjustment contributes an
// isolated number of points, so every contribution stays auditable and
// testable on its own. The whole policy lives in one table.
package scoring

import (
	"github.com/lumenguard/lumenguard/internal/enrich"
	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/patterns"
)

// Level is the final discrete risk classification.
type Level string

const (
	LevelSafe     Level = "SAFE"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// LevelFor maps a clamped score to its level. Thresholds are exclusive:
// a score of exactly 80 is HIGH, 81 is CRITICAL.
func LevelFor(score int) Level {
	switch {
	case score > 80:
		return LevelCritical
	case score > 60:
		return LevelHigh
	case score > 40:
		return LevelMedium
	case score > 20:
		return LevelLow
	default:
		return LevelSafe
	}
}

// Inputs is everything the scorer consumes. Signal may be nil (enrichment
// absent); absence is neutral, never negative.
type Inputs struct {
	Facts      *facts.AccountFacts
	Signal     *enrich.Signal
	Assessment patterns.Assessment
}

// Contribution records one adjustment that actually applied.
type Contribution struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Outcome is the scorer's sealed result.
type Outcome struct {
	Score         int            `json:"score"` // clamped to [0,100]
	Level         Level          `json:"level"`
	Contributions []Contribution `json:"contributions"`
}

// adjustment is one row of the scoring policy. points returns 0 when the
// adjustment does not apply.
type adjustment struct {
	name   string
	points func(in Inputs) int
}

// policy is the complete scoring table. Adding a signal means adding a row
// here, nowhere else.
var policy = []adjustment{
	{"account_age", func(in Inputs) int {
		switch age := in.Facts.AgeDays; {
		case age == 0:
			return 20
		case age < 3:
			return 18
		case age < 7:
			return 15
		case age < 30:
			return 10
		case age > 365:
			return -10
		default:
			return 0
		}
	}},
	{"transaction_history", func(in Inputs) int {
		switch tx := in.Facts.Activity.TotalTransactions; {
		case tx == 0:
			return 15
		case tx < 5:
			return 12
		case tx < 20:
			return 8
		case tx > 100:
			return -5
		default:
			return 0
		}
	}},
	{"native_balance", func(in Inputs) int {
		switch bal := in.Facts.NativeBalance; {
		case bal == 0:
			return 10
		case bal < 1:
			return 5
		default:
			return 0
		}
	}},
	{"multi_signature", func(in Inputs) int {
		if in.Facts.MultiSig {
			return -10
		}
		return 0
	}},
	{"home_domain", func(in Inputs) int {
		if in.Facts.HasHomeDomain() {
			return -5
		}
		return 0
	}},
	{"directory_trust", func(in Inputs) int {
		// A nil trust score means the account is simply unlisted and
		// contributes nothing; a present score of 0 is an active
		// negative signal.
		if in.Signal == nil || in.Signal.TrustScore == nil {
			return 0
		}
		switch ts := *in.Signal.TrustScore; {
		case ts > 80:
			return -15
		case ts == 0:
			return 10
		default:
			return 0
		}
	}},
	{"verified_organization", func(in Inputs) int {
		if in.Signal != nil && in.Signal.VerifiedOrganization {
			return -20
		}
		return 0
	}},
	{"fraud_patterns", func(in Inputs) int {
		if in.Assessment.Detected {
			return in.Assessment.Confidence
		}
		return 0
	}},
	{"one_sided_flow", func(in Inputs) int {
		a := in.Facts.Activity
		if a.OutgoingPayments == 0 {
			if a.IncomingPayments > 10 {
				return 12
			}
			return 0
		}
		if float64(a.IncomingPayments)/float64(a.OutgoingPayments) > 10 {
			return 12
		}
		return 0
	}},
	{"payment_outlier", func(in Inputs) int {
		a := in.Facts.Activity
		if a.AveragePayment > 0 && a.LargestPayment > 100*a.AveragePayment {
			return 8
		}
		return 0
	}},
}

// Score runs the policy table over the inputs. The additive model can pull
// the raw sum negative (an old, verified, multi-sig account); clamping at 0
// is the intended floor, not an error.
func Score(in Inputs) Outcome {
	var out Outcome
	total := 0
	for _, adj := range policy {
		pts := adj.points(in)
		if pts == 0 {
			continue
		}
		total += pts
		out.Contributions = append(out.Contributions, Contribution{Name: adj.name, Points: pts})
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	out.Score = total
	out.Level = LevelFor(total)
	return out
}
