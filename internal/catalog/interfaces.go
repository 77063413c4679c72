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
	"context"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// FoodCatalog provides read-only access to the foods available for planning.
// This interface is used by the optimizer, the creativity refiner and plan checks.
type FoodCatalog interface {
	// ByID returns the food with the given id.
	ByID(id int) (v1alpha1.FoodItem, bool)

	// ByMealType returns the foods suitable for meal m, ordered by id.
	ByMealType(m v1alpha1.MealType) []v1alpha1.FoodItem

	// ByGroup returns the foods of group g, ordered by id.
	ByGroup(g v1alpha1.FoodGroup) []v1alpha1.FoodItem

	// All returns every food, ordered by id.
	All() []v1alpha1.FoodItem

	// Len returns the number of foods.
	Len() int

	// HasAttribute reports whether any food carries the numeric attribute key.
	HasAttribute(key string) bool
}

// Source is the interface for pluggable food sources.
// Implementations include FileSource and the SQLite store.
type Source interface {
	// Name returns the unique name of this source (e.g., "file", "sqlite").
	Name() string

	// Load returns the raw food records. Records are validated when the
	// catalog is built, not by the source.
	Load(ctx context.Context) ([]v1alpha1.FoodItem, error)
}
