// Package requirements builds the RequirementSet handed to the optimizer,
// either from a YAML document or from nutrition targets.
package requirements

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// Decode parses and validates a requirements document:
//
//	constraints:
//	  - name: Daily Calories
//	    scope: daily
//	    attribute: calories
//	    operator: range
//	    value: [1800, 2200]
//	objectives:
//	  - name: Maximize Protein
//	    attribute: proteins
//	    maximize: true
//	    weight: 1
func Decode(r io.Reader) (v1alpha1.RequirementSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var reqs v1alpha1.RequirementSet
	if err := dec.Decode(&reqs); err != nil && err != io.EOF {
		return v1alpha1.RequirementSet{}, fmt.Errorf("failed to parse requirements: %w", err)
	}
	if err := reqs.Validate(); err != nil {
		return v1alpha1.RequirementSet{}, err
	}
	return reqs, nil
}

// LoadFile reads a requirements document from path.
func LoadFile(path string) (v1alpha1.RequirementSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return v1alpha1.RequirementSet{}, fmt.Errorf("failed to read requirements file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}
