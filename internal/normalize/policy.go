package normalize

import "fmt"

// Scaling policy names.
const (
	PolicyExact   = "exact"
	PolicyClamped = "clamped"
)

// Policy picks the uniform scale of the rotation pivot.
//
// exact:   Target / maxDimension
// clamped: clamp(Bound / maxDimension, Lower, Upper); Upper == 0 is unbounded
type Policy struct {
	Name   string
	Target float32
	Bound  float32
	Lower  float32
	Upper  float32
}

// DefaultPolicy scales every model to a largest extent of 2 units.
func DefaultPolicy() Policy {
	return Policy{
		Name:   PolicyExact,
		Target: 2.0,
		Bound:  1.2,
		Lower:  0.9,
	}
}

// Validate checks that the policy is known and its parameters usable.
func (p Policy) Validate() error {
	switch p.Name {
	case PolicyExact:
		if p.Target <= 0 {
			return fmt.Errorf("exact scaling needs a positive target size, got %v", p.Target)
		}
	case PolicyClamped:
		if p.Bound <= 0 {
			return fmt.Errorf("clamped scaling needs a positive bound, got %v", p.Bound)
		}
		if p.Lower <= 0 {
			return fmt.Errorf("clamped scaling needs a positive lower limit, got %v", p.Lower)
		}
		if p.Upper != 0 && p.Upper < p.Lower {
			return fmt.Errorf("clamped scaling upper limit %v is below lower limit %v", p.Upper, p.Lower)
		}
	default:
		return fmt.Errorf("unknown scaling policy %q", p.Name)
	}
	return nil
}

// Factor returns the pivot scale for a model of the given largest extent.
// A flat or empty model (maxDimension 0) keeps scale 1.
func (p Policy) Factor(maxDimension float32) float32 {
	if maxDimension <= 0 {
		return 1
	}
	switch p.Name {
	case PolicyClamped:
		f := max(p.Bound/maxDimension, p.Lower)
		if p.Upper > 0 {
			f = min(f, p.Upper)
		}
		return f
	default:
		return p.Target / maxDimension
	}
}
