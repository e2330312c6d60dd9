package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Scenario is a YAML list of session operations applied in order.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Step is one scenario operation. Solutions are referred to by the name
// given when they were created.
type Step struct {
	Op          string             `yaml:"op" validate:"required,oneof=add_solution mix change saturate ph temperature dump report"`
	Name        string             `yaml:"name"`
	Solution    string             `yaml:"solution"`
	Composition map[string]string  `yaml:"composition"`
	Parts       []PartSpec         `yaml:"parts" validate:"dive"`
	Elements    map[string]float64 `yaml:"elements"`
	Unit        string             `yaml:"unit" validate:"omitempty,oneof=mol mmol mg ug"`
	Phase       string             `yaml:"phase"`
	SI          float64            `yaml:"si"`
	Amount      *float64           `yaml:"amount" validate:"omitempty,gte=0"`
	PH          float64            `yaml:"ph" validate:"gte=0,lte=14"`
	Chemical    string             `yaml:"chemical"`
	Temperature float64            `yaml:"temperature" validate:"gte=0,lte=350"`
	Key         string             `yaml:"key"`
	Solutions   []string           `yaml:"solutions"`
}

// PartSpec is one mixing share.
type PartSpec struct {
	Solution string  `yaml:"solution" validate:"required"`
	Fraction float64 `yaml:"fraction" validate:"gt=0"`
}

var validate = validator.New()

func loadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validate.Struct(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	for i, st := range sc.Steps {
		if err := st.check(); err != nil {
			return nil, fmt.Errorf("invalid scenario %s: step %d (%s): %w", path, i+1, st.Op, err)
		}
	}
	return &sc, nil
}

// check enforces the per-operation field requirements.
func (st Step) check() error {
	switch st.Op {
	case "add_solution":
		if st.Name == "" {
			return errors.New("name is required")
		}
	case "mix":
		if st.Name == "" {
			return errors.New("name is required")
		}
		if len(st.Parts) == 0 {
			return errors.New("parts are required")
		}
	case "change":
		if st.Solution == "" || len(st.Elements) == 0 {
			return errors.New("solution and elements are required")
		}
	case "saturate":
		if st.Solution == "" || st.Phase == "" {
			return errors.New("solution and phase are required")
		}
	case "ph", "temperature", "report":
		if st.Solution == "" {
			return errors.New("solution is required")
		}
	case "dump":
		if st.Key == "" {
			return errors.New("key is required")
		}
	}
	return nil
}

func (sc *Scenario) dumps() bool {
	for _, st := range sc.Steps {
		if st.Op == "dump" {
			return true
		}
	}
	return false
}
