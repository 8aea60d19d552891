// Package definition reads IF-memory definition files (YAML) and seeds them
// into the running services.
package definition

import (
	"errors"
	"fmt"
	"io"
	"os"

	"memory_console/internal/models"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout: a catalog followed by the memories that use it.
//
//	points:
//	  - {id: ai-1, name: Boiler temperature, kind: Analog}
//	variables:
//	  - {name: setpoint, kind: number, initial_value: 21}
//	memories:
//	  - name: heater
//	    interval: 1
//	    ...
type File struct {
	Points    []models.Point          `yaml:"points,omitempty"`
	Variables []models.GlobalVariable `yaml:"variables,omitempty"`
	Memories  []models.IfMemory       `yaml:"memories,omitempty"`
}

// Decode parses one definition file. Unknown keys are rejected.
func Decode(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode definitions: %w", err)
	}
	for i := range f.Variables {
		v := &f.Variables[i]
		v.InitialValue = v.InitialValue.Convert(v.Kind)
	}
	return f, nil
}

// ReadFile opens and decodes path.
func ReadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Encode writes f as YAML.
func Encode(w io.Writer, f File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}
