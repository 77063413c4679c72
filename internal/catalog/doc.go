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

// Package catalog provides the read-only food catalog consumed by the planner.
//
// # Architecture
//
// Foods come from pluggable sources and are indexed once:
//
//	cat, err := catalog.Load(ctx, catalog.NewFileSource("config/samples/foods.yaml"))
//	breakfast := cat.ByMealType(v1alpha1.Breakfast)
//
// # Supported Sources
//
//   - FileSource: YAML catalog files
//   - store.Store: foods imported into the SQLite run store
//
// # Key Components
//
// FoodCatalog interface:
//   - ByID(): lookup by food identity
//   - ByMealType(): foods suitable for a meal type
//   - ByGroup(): foods of one food group
//   - All(): every food, ordered by id
//   - HasAttribute(): whether any food carries an extension attribute
//
// Source interface:
//   - Name(): source identifier used in logs
//   - Load(): returns raw food records
//
// # Invariants
//
// A Catalog is built once, validated (unique ids, known groups and meal
// types, finite non-negative nutrients) and never mutated afterwards. All
// lookups return foods ordered by id so downstream randomized strategies are
// reproducible for a fixed seed. A Catalog is safe for concurrent readers.
package catalog
