package assess

import (
	"math"

	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/MeKo-Tech/sitescout/internal/types"
)

// SyntheticDescription is the canned narrative of every synthetic assessment.
const SyntheticDescription = "Simulated Analysis: High density area with potential for retail expansion due to nearby metro access."

// Synthetic generates plausible random assessments without any I/O.
type Synthetic struct {
	rng geo.Source
}

// NewSynthetic creates a synthetic generator. The source must be safe for
// concurrent use when the generator is shared; nil selects geo.DefaultSource.
func NewSynthetic(rng geo.Source) *Synthetic {
	if rng == nil {
		rng = geo.DefaultSource()
	}
	return &Synthetic{rng: rng}
}

// Generate returns a synthetic assessment. Scores are whole numbers:
// traffic [50,90), accessibility [60,90), density [40,90), commercial value
// [50,90); the influence radius lies in [800,1800) metres.
func (s *Synthetic) Generate(types.Coordinate) types.Assessment {
	return types.Assessment{
		TrafficScore:       s.intIn(50, 40),
		AccessibilityScore: s.intIn(60, 30),
		ResidentialDensity: s.intIn(40, 50),
		CommercialValue:    s.intIn(50, 40),
		InfluenceRadius:    800 + s.rng.Float64()*1000,
		Description:        SyntheticDescription,
		Source:             types.SourceSynthetic,
	}
}

func (s *Synthetic) intIn(base, span float64) float64 {
	return base + math.Floor(s.rng.Float64()*span)
}
