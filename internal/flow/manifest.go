package flow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PhaseManifest is one phase's on-disk description within a pipeline
// manifest: which registered module type backs it,
// which behavior it runs under, and, for a converging phase, how many
// parallel members back it. Narrowed to this package's phase contract
// from a richer plugin-manifest pattern in the broader ecosystem.
type PhaseManifest struct {
	Name      string `yaml:"name"`
	Module    string `yaml:"module"`
	Behavior  string `yaml:"behavior"` // "stage" (default), "accumulate", "converge"
	ConvergeN int    `yaml:"converge_n"`
	InitArgs  any    `yaml:"init_args"`
}

// PipelineManifest is the ordered, on-disk pipeline description a host
// process (cmd/flowctl) loads instead of constructing []PhaseSpec by
// hand.
type PipelineManifest struct {
	Name   string          `yaml:"name"`
	Phases []PhaseManifest `yaml:"phases"`
}

// LoadManifest reads, parses, and validates a pipeline manifest file.
func LoadManifest(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline manifest: %w", err)
	}
	m := &PipelineManifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing pipeline manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline manifest: %w", err)
	}
	return m, nil
}

// Validate checks structural well-formedness: at least one phase,
// unique names, a valid behavior tag, and converge_n >= 2 on every
// converge phase.
func (m *PipelineManifest) Validate() error {
	if len(m.Phases) == 0 {
		return fmt.Errorf("pipeline must declare at least one phase")
	}
	seen := make(map[string]bool, len(m.Phases))
	for i, p := range m.Phases {
		if p.Name == "" {
			return fmt.Errorf("phase[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("phase[%d]: duplicate phase name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Module == "" {
			return fmt.Errorf("phase %q: module is required", p.Name)
		}
		switch p.Behavior {
		case "", "stage", "accumulate", "converge":
		default:
			return fmt.Errorf("phase %q: unknown behavior %q", p.Name, p.Behavior)
		}
		if p.Behavior == "converge" && p.ConvergeN < 2 {
			return fmt.Errorf("phase %q: converge phase needs converge_n >= 2", p.Name)
		}
	}
	return nil
}

// Resolve turns a parsed manifest into an ordered []PhaseSpec by
// looking up each phase's module name in reg and building one fresh
// Module instance per phase. Every member of a converging phase shares
// that one instance.
func (m *PipelineManifest) Resolve(reg *ModuleRegistry) ([]PhaseSpec, error) {
	specs := make([]PhaseSpec, len(m.Phases))
	for i, p := range m.Phases {
		module, err := reg.New(p.Module)
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", p.Name, err)
		}
		switch p.Behavior {
		case "accumulate":
			specs[i] = Accumulate(p.Name, module, p.InitArgs)
		case "converge":
			specs[i] = Converge(p.Name, p.ConvergeN, module, p.InitArgs)
		default:
			specs[i] = Stage(p.Name, module, p.InitArgs)
		}
	}
	return specs, nil
}
