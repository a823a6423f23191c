package quote

import "errors"

var (
	// ErrNonPositiveDistance is returned when the distance is zero or negative.
	ErrNonPositiveDistance = errors.New("quote: distance must be positive")
	// ErrNonPositiveSurface is returned when the surface is zero or negative.
	ErrNonPositiveSurface = errors.New("quote: surface must be positive")
	// ErrNegativeExtras is returned when the ad-hoc extra charge is negative.
	ErrNegativeExtras = errors.New("quote: extras must not be negative")
	// ErrNegativeMinCharge is returned when the minimum charge floor is negative.
	ErrNegativeMinCharge = errors.New("quote: minimum charge must not be negative")
	// ErrEmptySupplementName is returned when a supplement has a blank label.
	ErrEmptySupplementName = errors.New("quote: supplement name is required")
)

// CalculateStrict validates the shipment inputs before delegating to
// Calculate. Rate variables are deliberately not range-checked: negative
// rates are a supported way to model promotional reductions. The core
// arithmetic is untouched so it stays auditable against the formulas.
func CalculateStrict(in Inputs, vars Variables, supplements []Supplement) (Breakdown, error) {
	if !in.DistanceKm.IsPositive() {
		return Breakdown{}, ErrNonPositiveDistance
	}
	if !in.SurfaceM2.IsPositive() {
		return Breakdown{}, ErrNonPositiveSurface
	}
	if in.Extras.IsNegative() {
		return Breakdown{}, ErrNegativeExtras
	}
	if in.MinCharge.IsNegative() {
		return Breakdown{}, ErrNegativeMinCharge
	}
	for _, s := range supplements {
		if s.Nom == "" {
			return Breakdown{}, ErrEmptySupplementName
		}
	}
	return Calculate(in, vars, supplements), nil
}
