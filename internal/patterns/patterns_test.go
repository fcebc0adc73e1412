package patterns

import (
	"testing"

	"github.com/lumenguard/lumenguard/internal/enrich"
	"github.com/lumenguard/lumenguard/internal/facts"
)

func activeFacts(incoming, outgoing int, balance float64) *facts.AccountFacts {
	return &facts.AccountFacts{
		AgeDays:       200,
		NativeBalance: balance,
		Activity: facts.Activity{
			IncomingPayments: incoming,
			OutgoingPayments: outgoing,
		},
	}
}

func TestDrainWalletBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		incoming int
		outgoing int
		balance  float64
		fires    bool
	}{
		{"fires at exact thresholds", 10, 10, 0.999, true},
		{"nine incoming misses", 9, 10, 0.5, false},
		{"nine outgoing misses", 10, 9, 0.5, false},
		{"balance at one misses", 10, 10, 1.0, false},
		{"zero balance fires", 50, 50, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectDrainWallet(activeFacts(tt.incoming, tt.outgoing, tt.balance))
			if fired := len(got) > 0; fired != tt.fires {
				t.Errorf("fired=%v, want %v", fired, tt.fires)
			}
			if tt.fires {
				if got[0].Severity != SeverityCritical || got[0].Confidence != 85 {
					t.Errorf("got %s/%d, want CRITICAL/85", got[0].Severity, got[0].Confidence)
				}
			}
		})
	}
}

func TestPhishingTrustline(t *testing.T) {
	young := &facts.AccountFacts{
		AgeDays:    5,
		Trustlines: []facts.Asset{{Code: "FreeAIRDROP", Issuer: "GISSUER"}},
	}
	got := DetectPhishingTrustline(young)
	if len(got) != 1 {
		t.Fatalf("expected finding for bait trustline on young account, got %d", len(got))
	}
	if got[0].Confidence != 90 {
		t.Errorf("confidence = %d, want 90", got[0].Confidence)
	}

	old := &facts.AccountFacts{
		AgeDays:    30,
		Trustlines: []facts.Asset{{Code: "AIRDROP"}},
	}
	if got := DetectPhishingTrustline(old); len(got) != 0 {
		t.Errorf("account at 30 days must not trigger, got %v", got)
	}

	cleanAsset := &facts.AccountFacts{
		AgeDays:    5,
		Trustlines: []facts.Asset{{Code: "USDC"}},
	}
	if got := DetectPhishingTrustline(cleanAsset); len(got) != 0 {
		t.Errorf("clean asset code must not trigger, got %v", got)
	}
}

func TestPonziFlow(t *testing.T) {
	f := &facts.AccountFacts{
		AgeDays: 45,
		Activity: facts.Activity{
			UniqueSenders:    25,
			UniqueRecipients: 2,
		},
	}
	got := DetectPonziFlow(f)
	if len(got) != 1 || got[0].Confidence != 75 {
		t.Fatalf("expected ponzi_flow CRITICAL/75, got %v", got)
	}

	f.Activity.UniqueRecipients = 5
	if got := DetectPonziFlow(f); len(got) != 0 {
		t.Errorf("five recipients must not trigger, got %v", got)
	}

	f.Activity.UniqueRecipients = 2
	f.AgeDays = 90
	if got := DetectPonziFlow(f); len(got) != 0 {
		t.Errorf("90-day-old account must not trigger, got %v", got)
	}
}

func TestFakeExchange(t *testing.T) {
	brands := DefaultConfig().ExchangeBrands
	f := &facts.AccountFacts{
		AgeDays:    30,
		HomeDomain: "binance-rewards.net",
	}

	got := DetectFakeExchange(f, nil, brands)
	if len(got) != 1 || got[0].Confidence != 80 {
		t.Fatalf("expected fake_exchange CRITICAL/80, got %v", got)
	}

	// A verified organization with the brand in its domain is legitimate.
	verified := &enrich.Signal{VerifiedOrganization: true}
	if got := DetectFakeExchange(f, verified, brands); len(got) != 0 {
		t.Errorf("verified organization must not trigger, got %v", got)
	}

	f.AgeDays = 180
	if got := DetectFakeExchange(f, nil, brands); len(got) != 0 {
		t.Errorf("established account must not trigger, got %v", got)
	}

	noDomain := &facts.AccountFacts{AgeDays: 30}
	if got := DetectFakeExchange(noDomain, nil, brands); len(got) != 0 {
		t.Errorf("account without home domain must not trigger, got %v", got)
	}
}

func TestHoneypotFiresRegardlessOfOtherFacts(t *testing.T) {
	frozen := &facts.AccountFacts{
		AgeDays:       1000,
		NativeBalance: 50000,
		Freezable:     true,
	}
	got := DetectHoneypot(frozen)
	if len(got) != 1 {
		t.Fatalf("expected honeypot finding, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical || got[0].Confidence != 95 {
		t.Errorf("got %s/%d, want CRITICAL/95", got[0].Severity, got[0].Confidence)
	}

	clawback := &facts.AccountFacts{Clawbackable: true}
	if got := DetectHoneypot(clawback); len(got) != 1 {
		t.Errorf("clawback flag alone must trigger")
	}

	clean := &facts.AccountFacts{}
	if got := DetectHoneypot(clean); len(got) != 0 {
		t.Errorf("clean flags must not trigger, got %v", got)
	}
}

func TestRapidCreation(t *testing.T) {
	f := &facts.AccountFacts{AgeDays: 0, Activity: facts.Activity{TotalTransactions: 1}}
	got := DetectRapidCreation(f)
	if len(got) != 1 || got[0].Severity != SeverityHigh || got[0].Confidence != 70 {
		t.Fatalf("expected rapid_creation HIGH/70, got %v", got)
	}

	f.Activity.TotalTransactions = 2
	if got := DetectRapidCreation(f); len(got) != 0 {
		t.Errorf("two transactions must not trigger, got %v", got)
	}

	f.Activity.TotalTransactions = 0
	f.AgeDays = 3
	if got := DetectRapidCreation(f); len(got) != 0 {
		t.Errorf("three-day-old account must not trigger, got %v", got)
	}
}

func TestAddressSimilarity(t *testing.T) {
	known := "GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W37"

	// Shares the known address's displayed prefix and suffix but differs in
	// the middle, the classic wallet-truncation typosquat.
	mimic := known[:10] + "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX" + known[len(known)-10:]

	f := &facts.AccountFacts{Address: mimic}
	got := DetectAddressSimilarity(f, []string{known})
	if len(got) != 1 {
		t.Fatalf("expected similarity finding for %s, got %d", mimic, len(got))
	}
	if got[0].Severity != SeverityCritical || got[0].Confidence != 95 {
		t.Errorf("got %s/%d, want CRITICAL/95", got[0].Severity, got[0].Confidence)
	}

	// An exact match is the known address itself, never a threat.
	exact := &facts.AccountFacts{Address: known}
	if got := DetectAddressSimilarity(exact, []string{known}); len(got) != 0 {
		t.Errorf("exact match must not trigger, got %v", got)
	}

	// Unrelated address shares almost nothing.
	other := &facts.AccountFacts{Address: "GBSTRUSSHVFU2NHG43PXKN4YRRRCBFJGBG35YZW2JCZ7GQBMWTJ7U6WC"}
	if got := DetectAddressSimilarity(other, []string{known}); len(got) != 0 {
		t.Errorf("unrelated address must not trigger, got %v", got)
	}
}

func TestEdgeSimilarity(t *testing.T) {
	a := "ABCDEFGHIJ0000000000000000000000000000000000000KLMNOPQRST"
	if got := edgeSimilarity(a, a); got != 1.0 {
		t.Errorf("identical edges = %f, want 1.0", got)
	}
	if got := edgeSimilarity("short", a); got != 0 {
		t.Errorf("too-short address = %f, want 0", got)
	}
}

func TestBatteryMergesFindings(t *testing.T) {
	f := &facts.AccountFacts{
		AgeDays:    1,
		Freezable:  true,
		Trustlines: []facts.Asset{{Code: "GIFTCOIN"}},
		Activity:   facts.Activity{TotalTransactions: 0},
	}

	findings := NewBattery(DefaultConfig()).Run(f, nil)

	names := map[string]bool{}
	for _, fd := range findings {
		names[fd.Name] = true
	}
	for _, want := range []string{"phishing_trustline", "honeypot_token", "rapid_creation"} {
		if !names[want] {
			t.Errorf("missing finding %q in %v", want, names)
		}
	}
}
