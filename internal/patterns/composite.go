package patterns

// severityWeight scales each finding's confidence in the composite. More
// severe findings pull the average harder.
func severityWeight(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 1.5
	case SeverityHigh:
		return 1.2
	case SeverityMedium:
		return 1.0
	default:
		return 0.7
	}
}

// detectedThreshold is the composite confidence above which fraud is
// declared detected.
const detectedThreshold = 60

// Tier is the pre-screen recommendation derived from the composite alone.
// It is a coarser scale than the final risk level and the two are calibrated
// separately.
type Tier string

const (
	TierBlock   Tier = "BLOCK"
	TierWarn    Tier = "WARN"
	TierCaution Tier = "CAUTION"
	TierProceed Tier = "PROCEED"
)

// Assessment summarizes the detector battery's combined verdict.
type Assessment struct {
	Findings   []Finding `json:"findings"`
	Confidence int       `json:"confidence"` // severity-weighted composite, 0-100
	Detected   bool      `json:"detected"`
	Tier       Tier      `json:"tier"`
}

// Assess computes the composite confidence over the findings. The composite
// is the severity-weighted average of the triggered detectors' confidences,
// clamped to [0,100]; no findings means confidence 0.
func Assess(findings []Finding) Assessment {
	a := Assessment{Findings: findings, Tier: TierProceed}
	if len(findings) == 0 {
		return a
	}

	var weighted, weights float64
	for _, f := range findings {
		w := severityWeight(f.Severity)
		weighted += w * float64(f.Confidence)
		weights += w
	}

	composite := weighted / weights
	if composite > 100 {
		composite = 100
	}
	if composite < 0 {
		composite = 0
	}

	a.Confidence = int(composite)
	a.Detected = a.Confidence > detectedThreshold
	switch {
	case a.Confidence > 80:
		a.Tier = TierBlock
	case a.Confidence > 60:
		a.Tier = TierWarn
	case a.Confidence > 40:
		a.Tier = TierCaution
	}
	return a
}
