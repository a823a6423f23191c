package quote

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SupplementPct marks a supplement applied as a percentage of the running
// subtotal. Any other type value is treated as a fixed amount.
const SupplementPct = "pct"

// SupplementFix marks a flat supplement in currency units.
const SupplementFix = "fix"

// craneToken is matched case-insensitively as a substring of a supplement
// name to detect the crane special case.
const craneToken = "grue"

// Variables is a versioned set of rate parameters. All rates are expressed in
// percentage points (5 means 5%). Negative rates are accepted and reduce the
// price.
type Variables struct {
	TarifKmBase         decimal.Decimal
	MajCarburantPct     decimal.Decimal
	MajEmbouteillagePct decimal.Decimal
	TVARatePct          decimal.Decimal
}

// Supplement is one extra charge line item attached to a pricing set.
type Supplement struct {
	Nom     string
	Type    string
	Montant decimal.Decimal
}

// Inputs carries the per-shipment attributes of a quote request.
type Inputs struct {
	DistanceKm decimal.Decimal
	SurfaceM2  decimal.Decimal
	Extras     decimal.Decimal
	MinCharge  decimal.Decimal
}

// Breakdown holds every intermediate amount of a computed quote. It is fully
// derived from the call that produced it and is never mutated afterwards.
// Only EstimateTTC is rounded; all other fields keep full precision.
type Breakdown struct {
	BaseHT decimal.Decimal

	// PctSum and FixSum aggregate all supplements by type. The crane
	// supplement amounts are included here and applied again through
	// CranePct/CraneFix: the double application is deliberate and matches
	// the production pricing policy.
	PctSum   decimal.Decimal
	FixSum   decimal.Decimal
	CranePct decimal.Decimal
	CraneFix decimal.Decimal

	PctMultiplier decimal.Decimal
	AfterPct      decimal.Decimal
	AfterFixed    decimal.Decimal
	AfterCranePct decimal.Decimal

	EstimateHT  decimal.Decimal
	EstimateTTC decimal.Decimal
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Calculate produces the full price breakdown for a shipment. It is pure and
// synchronous: no I/O, no clock, no randomness, and it never fails. Input
// validation belongs to the caller (see CalculateStrict).
//
// Supplement aggregation is order-independent with one exception: the first
// supplement per type whose name contains "grue" (case-insensitive) is also
// applied as a separate final step, regardless of its position in the list.
func Calculate(in Inputs, vars Variables, supplements []Supplement) Breakdown {
	b := Breakdown{
		BaseHT: in.DistanceKm.Mul(in.SurfaceM2).Mul(vars.TarifKmBase),
	}

	cranePctSeen := false
	craneFixSeen := false
	for _, s := range supplements {
		isCrane := strings.Contains(strings.ToLower(s.Nom), craneToken)
		if s.Type == SupplementPct {
			b.PctSum = b.PctSum.Add(s.Montant)
			if isCrane && !cranePctSeen {
				b.CranePct = s.Montant
				cranePctSeen = true
			}
			continue
		}
		b.FixSum = b.FixSum.Add(s.Montant)
		if isCrane && !craneFixSeen {
			b.CraneFix = s.Montant
			craneFixSeen = true
		}
	}

	totalPct := vars.MajCarburantPct.Add(vars.MajEmbouteillagePct).Add(b.PctSum)
	b.PctMultiplier = one.Add(totalPct.Div(hundred))
	b.AfterPct = b.BaseHT.Mul(b.PctMultiplier)
	b.AfterFixed = b.AfterPct.Add(b.FixSum).Add(b.CraneFix).Add(in.Extras)
	b.AfterCranePct = b.AfterFixed.Mul(one.Add(b.CranePct.Div(hundred)))

	b.EstimateHT = b.AfterCranePct
	if b.EstimateHT.LessThan(in.MinCharge) {
		b.EstimateHT = in.MinCharge
	}
	b.EstimateTTC = b.EstimateHT.Mul(one.Add(vars.TVARatePct.Div(hundred))).Round(2)
	return b
}
