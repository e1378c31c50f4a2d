package predict

import (
	"math"
	"time"
)

// Profile holds the decay and horizon constants of one predictor
// configuration. Extrapolators pick the profile per entity state, e.g.
// a longer horizon when a flight plan is filed.
type Profile struct {
	// InitialConfidence is the confidence at zero age.
	InitialConfidence float64
	// ConfidenceHalfLife is the age at which confidence halves.
	ConfidenceHalfLife time.Duration
	// ConfidenceFloor bounds the decay from below.
	ConfidenceFloor float64
	// BaseUncertaintyM is the uncertainty radius at zero age, metres.
	BaseUncertaintyM float64
	// UncertaintyGrowthMPS is the radius growth in metres per second
	// of age.
	UncertaintyGrowthMPS float64
	// MaxHorizon bounds the forecast lookahead past from_time.
	MaxHorizon time.Duration
	// MaxStateAge bounds how old the anchoring state may be. Zero
	// means MaxHorizon.
	MaxStateAge time.Duration
	// SelfCalibrated marks profiles whose extrapolator supplies its
	// own per-point confidence and uncertainty. The contract then only
	// enforces monotonicity instead of applying the generic decay.
	SelfCalibrated bool
}

// Confidence returns max(floor, C0 * 0.5^(age/halfLife)). Negative ages
// clamp to zero so a state timestamped ahead of the window never yields
// confidence above C0.
func (p Profile) Confidence(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	hl := p.ConfidenceHalfLife.Seconds()
	if hl <= 0 {
		return p.ConfidenceFloor
	}
	c := p.InitialConfidence * math.Pow(0.5, age.Seconds()/hl)
	return math.Max(p.ConfidenceFloor, c)
}

// UncertaintyM returns base + growth*age in metres.
func (p Profile) UncertaintyM(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return p.BaseUncertaintyM + p.UncertaintyGrowthMPS*age.Seconds()
}

// maxStateAge returns the staleness cutoff for anchoring states.
func (p Profile) maxStateAge() time.Duration {
	if p.MaxStateAge > 0 {
		return p.MaxStateAge
	}
	return p.MaxHorizon
}
