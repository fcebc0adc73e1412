package patterns

import "testing"

func TestAssessEmpty(t *testing.T) {
	a := Assess(nil)
	if a.Confidence != 0 || a.Detected || a.Tier != TierProceed {
		t.Errorf("empty assessment = %+v, want confidence 0, not detected, PROCEED", a)
	}
}

func TestAssessSingleFinding(t *testing.T) {
	a := Assess([]Finding{{Name: "honeypot_token", Severity: SeverityCritical, Confidence: 95}})
	if a.Confidence != 95 {
		t.Errorf("single finding composite = %d, want its own confidence 95", a.Confidence)
	}
	if !a.Detected {
		t.Error("composite 95 must be detected")
	}
	if a.Tier != TierBlock {
		t.Errorf("tier = %s, want BLOCK", a.Tier)
	}
}

func TestAssessWeightsBySeverity(t *testing.T) {
	// CRITICAL 90 (weight 1.5) with HIGH 40 (weight 1.2):
	// (1.5*90 + 1.2*40) / 2.7 = 67.7 -> 67.
	a := Assess([]Finding{
		{Name: "a", Severity: SeverityCritical, Confidence: 90},
		{Name: "b", Severity: SeverityHigh, Confidence: 40},
	})
	if a.Confidence != 67 {
		t.Errorf("weighted composite = %d, want 67", a.Confidence)
	}
	if !a.Detected {
		t.Error("composite 67 must be detected")
	}
	if a.Tier != TierWarn {
		t.Errorf("tier = %s, want WARN", a.Tier)
	}
}

func TestDetectedThresholdIsExclusive(t *testing.T) {
	// A single MEDIUM finding at confidence 60 gives composite exactly 60.
	a := Assess([]Finding{{Name: "a", Severity: SeverityMedium, Confidence: 60}})
	if a.Confidence != 60 {
		t.Fatalf("composite = %d, want 60", a.Confidence)
	}
	if a.Detected {
		t.Error("composite exactly 60 must not be detected")
	}
	if a.Tier != TierCaution {
		t.Errorf("tier = %s, want CAUTION", a.Tier)
	}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		confidence int
		want       Tier
	}{
		{81, TierBlock},
		{80, TierWarn},
		{61, TierWarn},
		{60, TierCaution},
		{41, TierCaution},
		{40, TierProceed},
		{0, TierProceed},
	}
	for _, tt := range tests {
		a := Assess([]Finding{{Name: "a", Severity: SeverityMedium, Confidence: tt.confidence}})
		if a.Tier != tt.want {
			t.Errorf("confidence %d: tier = %s, want %s", tt.confidence, a.Tier, tt.want)
		}
	}
}

func TestSeverityOrderingAndStrings(t *testing.T) {
	if !(SeverityLow < SeverityMedium && SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Error("severity ordering broken")
	}
	if SeverityCritical.String() != "CRITICAL" || SeverityLow.String() != "LOW" {
		t.Errorf("severity strings wrong: %s %s", SeverityCritical, SeverityLow)
	}
}
