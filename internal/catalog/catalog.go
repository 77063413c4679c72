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
	"fmt"
	"sort"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/utils/foodgroup"
)

// Catalog is an immutable, indexed FoodCatalog.
type Catalog struct {
	foods      []v1alpha1.FoodItem
	byID       map[int]int
	byMeal     map[v1alpha1.MealType][]v1alpha1.FoodItem
	byGroup    map[v1alpha1.FoodGroup][]v1alpha1.FoodItem
	attributes map[string]bool
}

var _ FoodCatalog = (*Catalog)(nil)

// New validates foods and builds the indexes. Group names are normalized, so
// slugs such as "whole_grains" are accepted. The input slice is not retained.
func New(foods []v1alpha1.FoodItem) (*Catalog, error) {
	c := &Catalog{
		foods:      make([]v1alpha1.FoodItem, 0, len(foods)),
		byID:       make(map[int]int, len(foods)),
		byMeal:     make(map[v1alpha1.MealType][]v1alpha1.FoodItem),
		byGroup:    make(map[v1alpha1.FoodGroup][]v1alpha1.FoodItem),
		attributes: make(map[string]bool),
	}

	seen := make(map[int]bool, len(foods))
	for _, f := range foods {
		if seen[f.ID] {
			return nil, fmt.Errorf("duplicate food id %d (%s)", f.ID, f.Name)
		}
		seen[f.ID] = true

		g, err := foodgroup.Parse(string(f.Group))
		if err != nil {
			return nil, fmt.Errorf("food %d (%s): %w", f.ID, f.Name, err)
		}
		f.Group = g
		f.Meals = append([]v1alpha1.MealType(nil), f.Meals...)
		if f.Attributes != nil {
			attrs := make(map[string]float64, len(f.Attributes))
			for k, v := range f.Attributes {
				attrs[k] = v
			}
			f.Attributes = attrs
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		c.foods = append(c.foods, f)
	}

	sort.Slice(c.foods, func(i, j int) bool { return c.foods[i].ID < c.foods[j].ID })
	for i, f := range c.foods {
		c.byID[f.ID] = i
		c.byGroup[f.Group] = append(c.byGroup[f.Group], f)
		for _, m := range v1alpha1.MealTypes {
			if f.SuitableFor(m) {
				c.byMeal[m] = append(c.byMeal[m], f)
			}
		}
		for k := range f.Attributes {
			c.attributes[k] = true
		}
	}
	return c, nil
}

// Load reads foods from src and builds a catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	logger := logging.FromContext(ctx)

	foods, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load foods from %s: %w", src.Name(), err)
	}
	c, err := New(foods)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog from %s: %w", src.Name(), err)
	}
	logger.V(logging.DEBUG).Info("Loaded food catalog",
		"source", src.Name(),
		"foods", c.Len())
	return c, nil
}

// ByID returns the food with the given id.
func (c *Catalog) ByID(id int) (v1alpha1.FoodItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return v1alpha1.FoodItem{}, false
	}
	return c.foods[i], true
}

// ByMealType returns the foods suitable for meal m.
func (c *Catalog) ByMealType(m v1alpha1.MealType) []v1alpha1.FoodItem {
	return append([]v1alpha1.FoodItem(nil), c.byMeal[m]...)
}

// ByGroup returns the foods of group g.
func (c *Catalog) ByGroup(g v1alpha1.FoodGroup) []v1alpha1.FoodItem {
	return append([]v1alpha1.FoodItem(nil), c.byGroup[g]...)
}

// All returns every food.
func (c *Catalog) All() []v1alpha1.FoodItem {
	return append([]v1alpha1.FoodItem(nil), c.foods...)
}

// Len returns the number of foods.
func (c *Catalog) Len() int {
	return len(c.foods)
}

// HasAttribute reports whether any food carries key. The built-in nutrients
// calories and proteins are always present.
func (c *Catalog) HasAttribute(key string) bool {
	switch key {
	case v1alpha1.NutrientCalories, v1alpha1.NutrientProteins, v1alpha1.NutrientProtein:
		return len(c.foods) > 0
	}
	return c.attributes[key]
}
