// Package palette names the colour policies available to the renderer and
// holds the gradient tables used by the gradient policies.
package palette

import (
	"fmt"
	"strings"
)

// Policy selects how accumulated field statistics become colours.
type Policy int

const (
	Kindlmann Policy = iota
	Inferno
	Blackbody
	Viridis
	Plasma
	BW
	HSV
	HSL
	RGB
	Mix
	policyCount
)

var policyNames = [...]string{
	Kindlmann: "KIN",
	Inferno:   "INF",
	Blackbody: "BLA",
	Viridis:   "VID",
	Plasma:    "PLA",
	BW:        "BW",
	HSV:       "HSV",
	HSL:       "HSL",
	RGB:       "RGB",
	Mix:       "MIX",
}

// Channels says which directional accumulators a policy needs.
type Channels int

const (
	// Density policies only count hits.
	Density Channels = iota
	// Direction accumulates normalised (vy, vx) for hue.
	Direction
	// Sign accumulates positive vx, negative vx and |vy|.
	Sign
	// Triaxial accumulates the velocity projected on three axes 120° apart.
	Triaxial
)

// All returns every policy in declaration order.
func All() []Policy {
	out := make([]Policy, 0, policyCount)
	for p := Kindlmann; p < policyCount; p++ {
		out = append(out, p)
	}
	return out
}

func (p Policy) String() string {
	if p < 0 || p >= policyCount {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return policyNames[p]
}

// IsGradient reports whether p maps density through a gradient table.
func (p Policy) IsGradient() bool {
	return p >= Kindlmann && p <= Plasma
}

func (p Policy) Channels() Channels {
	switch p {
	case HSV, HSL:
		return Direction
	case RGB:
		return Sign
	case Mix:
		return Triaxial
	default:
		return Density
	}
}

// Parse resolves a policy name, case-insensitively.
func Parse(name string) (Policy, error) {
	for p, n := range policyNames {
		if strings.EqualFold(n, name) {
			return Policy(p), nil
		}
	}
	return 0, fmt.Errorf("palette: unknown colour %q (want %s)", name, strings.Join(policyNames[:], " | "))
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string { return "colour" }

func (p Policy) MarshalYAML() (interface{}, error) { return p.String(), nil }

func (p *Policy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return p.Set(s)
}
