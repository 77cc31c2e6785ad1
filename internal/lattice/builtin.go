package lattice

import (
	"fmt"
	"sort"

	"github.com/san-kum/beamsim/internal/elements"
)

// builtins maps lattice names to constructors. Each call returns a
// fresh lattice so interactive tuning never leaks between runs.
var builtins = map[string]func() *Lattice{
	"fodo": fodo,
	"arc":  arc,
}

// Builtin returns a named built-in lattice.
func Builtin(name string) (*Lattice, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown lattice: %s", name)
	}
	return fn(), nil
}

// ListBuiltin returns the built-in lattice names, sorted.
func ListBuiltin() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fodo is a plain focusing/defocusing cell built from straight
// combined-function magnets (k0 = h = 0) and drifts. Focal length
// 1/(k1*l) = 10 m per quadrupole, cell length 6 m.
func fodo() *Lattice {
	return &Lattice{
		Name: "fodo",
		Slots: []Slot{
			{Name: "qf", Elem: elements.NewCombinedFunctionDipole(1.0, 0, 0.1, 0)},
			{Name: "d1", Elem: elements.NewDrift(2.0)},
			{Name: "qd", Elem: elements.NewCombinedFunctionDipole(1.0, 0, -0.1, 0)},
			{Name: "d2", Elem: elements.NewDrift(2.0)},
		},
	}
}

// arc is a combined-function arc cell: two sector bends with gradient,
// curvature matched to the dipole strength.
func arc() *Lattice {
	return &Lattice{
		Name: "arc",
		Slots: []Slot{
			{Name: "mbf", Elem: elements.NewCombinedFunctionDipole(2.0, 0.02, 0.08, 0.02)},
			{Name: "d1", Elem: elements.NewDrift(1.0)},
			{Name: "mbd", Elem: elements.NewCombinedFunctionDipole(2.0, 0.02, -0.08, 0.02)},
			{Name: "d2", Elem: elements.NewDrift(1.0)},
		},
	}
}
