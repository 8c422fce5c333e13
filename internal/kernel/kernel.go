// Package kernel implements one iteration step of each supported
// two-dimensional map family.
//
// Every family is described by a [Descriptor] carrying the shape of its
// coefficient table, its default Lyapunov acceptance threshold and the step
// function itself:
//
//	d := kernel.Lookup(kernel.Poly)
//	next := d.Step(&c, x)
//
// Step functions are pure: identical inputs always yield bit-identical outputs.
package kernel

import (
	"fmt"
	"strings"

	"github.com/san-kum/attractor/internal/vec"
)

// MaxRows is the largest coefficient row count of any family.
const MaxRows = 8

// Coef is a coefficient table, one column per output axis. Rows beyond the
// family's Rows are ignored.
type Coef [MaxRows][2]float64

type Family int

const (
	Poly Family = iota
	Trig
	Saw
	Tri
	familyCount
)

var familyNames = [...]string{
	Poly: "POLY",
	Trig: "TRIG",
	Saw:  "SAW",
	Tri:  "TRI",
}

// StepFunc advances x by one iteration of the map defined by c.
type StepFunc func(c *Coef, x vec.Vec) vec.Vec

// Descriptor is the per-family metadata selected at configuration time.
type Descriptor struct {
	Family    Family
	Name      string
	Rows      int
	Threshold float64
	Step      StepFunc
}

var descriptors = [...]Descriptor{
	Poly: {Family: Poly, Name: "POLY", Rows: 6, Threshold: 10, Step: stepPoly},
	Trig: {Family: Trig, Name: "TRIG", Rows: 8, Threshold: 5, Step: stepTrig},
	Saw:  {Family: Saw, Name: "SAW", Rows: 8, Threshold: 5, Step: stepSaw},
	Tri:  {Family: Tri, Name: "TRI", Rows: 8, Threshold: 5, Step: stepTri},
}

// Lookup returns the descriptor of f. It panics on an unknown family, which
// can only be produced by a bad conversion.
func Lookup(f Family) Descriptor {
	if f < 0 || f >= familyCount {
		panic(fmt.Sprintf("kernel: unknown family %d", int(f)))
	}
	return descriptors[f]
}

// Families lists every supported family in declaration order.
func Families() []Family {
	out := make([]Family, 0, familyCount)
	for f := Poly; f < familyCount; f++ {
		out = append(out, f)
	}
	return out
}

// Rows is shorthand for Lookup(f).Rows.
func (f Family) Rows() int { return Lookup(f).Rows }

func (f Family) String() string {
	if f < 0 || f >= familyCount {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return familyNames[f]
}

// Parse resolves a family name, case-insensitively.
func Parse(name string) (Family, error) {
	for f, n := range familyNames {
		if strings.EqualFold(n, name) {
			return Family(f), nil
		}
	}
	return 0, fmt.Errorf("kernel: unknown attractor type %q (want %s)", name, strings.Join(familyNames[:], " | "))
}

// Set implements pflag.Value.
func (f *Family) Set(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Family) Type() string { return "attractor" }

// MarshalYAML and UnmarshalYAML keep settings files readable.
func (f Family) MarshalYAML() (interface{}, error) { return f.String(), nil }

func (f *Family) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return f.Set(s)
}
