// Package patterns holds the fraud-archetype detector battery. Every
// detector is a pure function over the collected facts (plus the optional
// reputation signal); detectors share no state and may run in any order.
package patterns

import (
	"fmt"
	"strings"

	"github.com/lumenguard/lumenguard/internal/enrich"
	"github.com/lumenguard/lumenguard/internal/facts"
)

// Severity orders findings from least to most severe.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Finding is one structured detector hit. Immutable once created.
type Finding struct {
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Confidence  int      `json:"confidence"` // 0-100
	Evidence    []string `json:"evidence,omitempty"`
}

// Config is the reference data the detectors need. Injected at construction
// so tests can substitute fixtures; both lists are expected to grow over
// time through configuration rather than code changes.
type Config struct {
	// ExchangeBrands are lowercase brand substrings the fake-exchange
	// detector matches against declared home domains.
	ExchangeBrands []string

	// KnownAddresses are high-value addresses the similarity detector
	// compares against (typosquat protection).
	KnownAddresses []string
}

// DefaultConfig returns the seed reference data.
func DefaultConfig() Config {
	return Config{
		ExchangeBrands: []string{
			"binance", "coinbase", "kraken", "bitfinex", "okx",
			"bybit", "kucoin", "lobstr", "stellarterm",
		},
		KnownAddresses: []string{
			// Well-known high-volume accounts; impersonators mimic these.
			"GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN",
			"GAHK7EEG2WWHVKDNT4CEQFZGKF2LGDSW2IVM4S5DP42RBW3K6BTODB4A",
			"GCQJX6WGG7SSFU2RBO5QANTFXY7C5GTTFJDCBAAO42JCCFIMZ7PEBURP",
			"GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W37",
		},
	}
}

// Battery runs every detector against one account.
type Battery struct {
	cfg Config
}

// NewBattery creates a detector battery with the given reference data.
func NewBattery(cfg Config) *Battery {
	return &Battery{cfg: cfg}
}

// Run executes all detectors and merges their findings. sig may be nil when
// enrichment produced no signal.
func (b *Battery) Run(f *facts.AccountFacts, sig *enrich.Signal) []Finding {
	var out []Finding
	out = append(out, DetectDrainWallet(f)...)
	out = append(out, DetectPhishingTrustline(f)...)
	out = append(out, DetectPonziFlow(f)...)
	out = append(out, DetectFakeExchange(f, sig, b.cfg.ExchangeBrands)...)
	out = append(out, DetectHoneypot(f)...)
	out = append(out, DetectRapidCreation(f)...)
	out = append(out, DetectAddressSimilarity(f, b.cfg.KnownAddresses)...)
	return out
}

// DetectDrainWallet flags pass-through accounts: heavy two-way payment flow
// but an empty native balance.
func DetectDrainWallet(f *facts.AccountFacts) []Finding {
	a := f.Activity
	if a.IncomingPayments < 10 || a.OutgoingPayments < 10 || f.NativeBalance >= 1 {
		return nil
	}
	return []Finding{{
		Name:        "drain_wallet",
		Severity:    SeverityCritical,
		Description: "Account receives and immediately forwards funds, keeping an empty balance",
		Confidence:  85,
		Evidence: []string{
			fmt.Sprintf("%d incoming and %d outgoing payments", a.IncomingPayments, a.OutgoingPayments),
			fmt.Sprintf("native balance %.7f", f.NativeBalance),
		},
	}}
}

var phishingCodeFragments = []string{"airdrop", "free", "bonus", "gift"}

// DetectPhishingTrustline flags young accounts holding bait-named assets.
func DetectPhishingTrustline(f *facts.AccountFacts) []Finding {
	if f.AgeDays >= 30 {
		return nil
	}
	for _, tl := range f.Trustlines {
		code := strings.ToLower(tl.Code)
		for _, frag := range phishingCodeFragments {
			if strings.Contains(code, frag) {
				return []Finding{{
					Name:        "phishing_trustline",
					Severity:    SeverityCritical,
					Description: "Newly created account holds an airdrop-bait asset",
					Confidence:  90,
					Evidence: []string{
						fmt.Sprintf("account is %d days old", f.AgeDays),
						fmt.Sprintf("trustline asset %q matches bait fragment %q", tl.Code, frag),
					},
				}}
			}
		}
	}
	return nil
}

// DetectPonziFlow flags young accounts with many-in, few-out payment flow.
func DetectPonziFlow(f *facts.AccountFacts) []Finding {
	a := f.Activity
	if a.UniqueSenders < 20 || a.UniqueRecipients >= 5 || f.AgeDays >= 90 {
		return nil
	}
	return []Finding{{
		Name:        "ponzi_flow",
		Severity:    SeverityCritical,
		Description: "Young account collects from many senders while paying out to almost none",
		Confidence:  75,
		Evidence: []string{
			fmt.Sprintf("%d distinct senders, %d distinct recipients", a.UniqueSenders, a.UniqueRecipients),
			fmt.Sprintf("account is %d days old", f.AgeDays),
		},
	}}
}

// DetectFakeExchange flags young, unverified accounts squatting on exchange
// brand names in their home domain.
func DetectFakeExchange(f *facts.AccountFacts, sig *enrich.Signal, brands []string) []Finding {
	if !f.HasHomeDomain() || f.AgeDays >= 180 {
		return nil
	}
	if sig != nil && sig.VerifiedOrganization {
		return nil
	}
	domain := strings.ToLower(f.HomeDomain)
	for _, brand := range brands {
		if strings.Contains(domain, brand) {
			return []Finding{{
				Name:        "fake_exchange",
				Severity:    SeverityCritical,
				Description: "Unverified account impersonates a known exchange brand",
				Confidence:  80,
				Evidence: []string{
					fmt.Sprintf("home domain %q contains brand %q", f.HomeDomain, brand),
					fmt.Sprintf("account is %d days old and not a verified organization", f.AgeDays),
				},
			}}
		}
	}
	return nil
}

// DetectHoneypot flags accounts whose assets can be frozen or clawed back by
// the issuer. Victims can buy but never sell.
func DetectHoneypot(f *facts.AccountFacts) []Finding {
	if !f.Freezable && !f.Clawbackable {
		return nil
	}
	var evidence []string
	if f.Freezable {
		evidence = append(evidence, "issuer can freeze balances (auth_revocable)")
	}
	if f.Clawbackable {
		evidence = append(evidence, "issuer can claw back balances (auth_clawback_enabled)")
	}
	return []Finding{{
		Name:        "honeypot_token",
		Severity:    SeverityCritical,
		Description: "Issuer retains control over holder balances",
		Confidence:  95,
		Evidence:    evidence,
	}}
}

// DetectRapidCreation flags accounts created moments ago with no real
// history, the signature of bot-generated throwaway accounts.
func DetectRapidCreation(f *facts.AccountFacts) []Finding {
	if f.AgeDays >= 3 || f.Activity.TotalTransactions >= 2 {
		return nil
	}
	return []Finding{{
		Name:        "rapid_creation",
		Severity:    SeverityHigh,
		Description: "Account was created very recently and has essentially no history",
		Confidence:  70,
		Evidence: []string{
			fmt.Sprintf("account is %d days old", f.AgeDays),
			fmt.Sprintf("%d transactions on record", f.Activity.TotalTransactions),
		},
	}}
}

// similarityThreshold is the minimum fraction of matching positions across
// the compared prefix and suffix.
const similarityThreshold = 0.70

// DetectAddressSimilarity flags addresses that closely mimic a known
// high-value address without being it (typosquats rely on wallets truncating
// the middle of addresses for display).
func DetectAddressSimilarity(f *facts.AccountFacts, known []string) []Finding {
	for _, k := range known {
		if k == f.Address {
			continue
		}
		ratio := edgeSimilarity(f.Address, k)
		if ratio >= similarityThreshold {
			return []Finding{{
				Name:        "address_similarity",
				Severity:    SeverityCritical,
				Description: "Address closely mimics a known high-value address",
				Confidence:  95,
				Evidence: []string{
					fmt.Sprintf("%.0f%% of displayed prefix/suffix characters match %s", ratio*100, truncate(k)),
				},
			}}
		}
	}
	return nil
}

// edgeSimilarity compares the first and last 10 characters of two addresses
// position-wise and returns the matching fraction over those 20 positions.
func edgeSimilarity(a, b string) float64 {
	const edge = 10
	if len(a) < 2*edge || len(b) < 2*edge {
		return 0
	}
	matches := 0
	for i := 0; i < edge; i++ {
		if a[i] == b[i] {
			matches++
		}
		if a[len(a)-edge+i] == b[len(b)-edge+i] {
			matches++
		}
	}
	return float64(matches) / float64(2*edge)
}

func truncate(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-6:]
}
