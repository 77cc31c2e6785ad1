package lattice

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/beamsim/internal/elements"
)

// Slot is one named element position in a beamline sequence.
type Slot struct {
	Name string
	Elem elements.Element
}

// Lattice is an ordered element sequence making up one turn of a ring
// (or one pass of a transfer line).
type Lattice struct {
	Name  string
	Slots []Slot
}

// Elements returns the bare element sequence in order.
func (l *Lattice) Elements() []elements.Element {
	els := make([]elements.Element, len(l.Slots))
	for i, s := range l.Slots {
		els[i] = s.Elem
	}
	return els
}

// Length sums the design lengths of all elements.
func (l *Lattice) Length() float64 {
	total := 0.0
	for _, s := range l.Slots {
		if c, ok := s.Elem.(elements.Configurable); ok {
			total += c.GetParams()["length"]
		}
	}
	return total
}

type latticeFile struct {
	Name    string        `toml:"name"`
	Element []elementSpec `toml:"element"`
}

type elementSpec struct {
	Name   string  `toml:"name"`
	Type   string  `toml:"type"`
	Length float64 `toml:"length"`
	K0     float64 `toml:"k0"`
	K1     float64 `toml:"k1"`
	H      float64 `toml:"h"`
}

// LoadTOML reads a lattice description file: a sequence of [[element]]
// tables with a type of "drift" or "cfd" (alias "bend") plus the
// element parameters.
func LoadTOML(path string) (*Lattice, error) {
	var file latticeFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("lattice %s: %w", path, err)
	}
	if len(file.Element) == 0 {
		return nil, fmt.Errorf("lattice %s: no elements", path)
	}

	lat := &Lattice{Name: file.Name}
	for i, spec := range file.Element {
		if spec.Length < 0 {
			return nil, fmt.Errorf("lattice %s: element %d has negative length", path, i)
		}
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", spec.Type, i)
		}

		var el elements.Element
		switch spec.Type {
		case "drift":
			el = elements.NewDrift(spec.Length)
		case "cfd", "bend":
			el = elements.NewCombinedFunctionDipole(spec.Length, spec.K0, spec.K1, spec.H)
		default:
			return nil, fmt.Errorf("lattice %s: unknown element type: %s", path, spec.Type)
		}

		lat.Slots = append(lat.Slots, Slot{Name: name, Elem: el})
	}
	return lat, nil
}
