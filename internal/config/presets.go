package config

var Presets = map[string]map[string]*Config{
	"fodo": {
		"pencil": {
			Lattice: "fodo", Turns: 512, CheckFinite: true,
			Beam: BeamConfig{Particles: 1000, Beta0: 1.0, SigmaX: 1e-4, SigmaPx: 1e-5, SigmaY: 1e-4, SigmaPy: 1e-5},
		},
		"wide": {
			Lattice: "fodo", Turns: 512, CheckFinite: true,
			Beam: BeamConfig{Particles: 1000, Beta0: 1.0, SigmaX: 2e-3, SigmaPx: 2e-4, SigmaY: 2e-3, SigmaPy: 2e-4},
		},
		"chromatic": {
			Lattice: "fodo", Turns: 1024, CheckFinite: true,
			Beam: BeamConfig{Particles: 2000, Beta0: 0.999, SigmaX: 1e-3, SigmaPx: 1e-4, SigmaY: 1e-3, SigmaPy: 1e-4, SigmaDelta: 1e-3},
		},
	},
	"arc": {
		"onmomentum": {
			Lattice: "arc", Turns: 512, CheckFinite: true,
			Beam: BeamConfig{Particles: 1000, Beta0: 1.0, SigmaX: 5e-4, SigmaPx: 5e-5, SigmaY: 5e-4, SigmaPy: 5e-5},
		},
		"offmomentum": {
			Lattice: "arc", Turns: 512, CheckFinite: true,
			Beam: BeamConfig{Particles: 1000, Beta0: 0.9999, Delta: 1e-3, SigmaX: 5e-4, SigmaPx: 5e-5, SigmaY: 5e-4, SigmaPy: 5e-5, SigmaDelta: 5e-4},
		},
	},
}

func GetPreset(lattice, preset string) *Config {
	latticePresets, ok := Presets[lattice]
	if !ok {
		return nil
	}
	cfg, ok := latticePresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(lattice string) []string {
	latticePresets, ok := Presets[lattice]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(latticePresets))
	for name := range latticePresets {
		names = append(names, name)
	}
	return names
}
