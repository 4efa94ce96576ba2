package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/equinor/neqnet/stream"
)

var (
	// ErrEmpty indicates a file without any network section.
	ErrEmpty = errors.New("config: no network section")

	// ErrInvalid indicates a section that cannot be built.
	ErrInvalid = errors.New("config: invalid network description")
)

// File is the root of a network description.
type File struct {
	Gathering *Gathering `yaml:"gathering,omitempty"`
	Looped    *Looped    `yaml:"looped,omitempty"`
	PipeFlow  *PipeFlow  `yaml:"pipeflow,omitempty"`
}

// Quantity is a value with its unit.
type Quantity struct {
	Value float64 `yaml:"value"`
	Unit  string  `yaml:"unit"`
}

// Fluid mirrors stream.Fluid. Zero fields fall back to stream.DefaultGas.
type Fluid struct {
	MolarMass     float64 `yaml:"molar_mass,omitempty"`
	Z             float64 `yaml:"z,omitempty"`
	Viscosity     float64 `yaml:"viscosity,omitempty"`
	LiquidDensity float64 `yaml:"liquid_density,omitempty"`
}

// Stream returns the described fluid on top of the default gas.
func (f *Fluid) Stream() stream.Fluid {
	out := stream.DefaultGas()
	if f == nil {
		return out
	}
	if f.MolarMass > 0 {
		out.MolarMass = f.MolarMass
	}
	if f.Z > 0 {
		out.Z = f.Z
	}
	if f.Viscosity > 0 {
		out.Viscosity = f.Viscosity
	}
	out.LiquidDensity = f.LiquidDensity

	return out
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML description. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if f.Gathering == nil && f.Looped == nil && f.PipeFlow == nil {
		return nil, ErrEmpty
	}

	return &f, nil
}

// Marshal encodes f back to YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return buf.Bytes(), nil
}

func invalid(section, name, format string, args ...any) error {
	return fmt.Errorf("%w: %s %q: %s", ErrInvalid, section, name, fmt.Sprintf(format, args...))
}
