/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// File is the on-disk layout of a catalog file.
type File struct {
	Foods []v1alpha1.FoodItem `yaml:"foods" json:"foods"`
}

// FileSource reads foods from a YAML catalog file.
type FileSource struct {
	path string
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a source for the catalog file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns "file:<path>".
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]v1alpha1.FoodItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses a catalog document. Unknown fields are rejected.
func Decode(r io.Reader) ([]v1alpha1.FoodItem, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return f.Foods, nil
}

// LoadFile builds a catalog from a YAML file.
func LoadFile(ctx context.Context, path string) (*Catalog, error) {
	return Load(ctx, NewFileSource(path))
}

// StaticSource serves a fixed list of foods.
type StaticSource []v1alpha1.FoodItem

// Name returns "static".
func (s StaticSource) Name() string { return "static" }

// Load returns a copy of the foods.
func (s StaticSource) Load(context.Context) ([]v1alpha1.FoodItem, error) {
	return append([]v1alpha1.FoodItem(nil), s...), nil
}
