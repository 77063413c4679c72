package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
)

var _ catalog.Source = (*Store)(nil)

// ImportFoods upserts foods by id in one transaction and returns the number
// written. Every food is validated first; nothing is written on error.
func (s *Store) ImportFoods(ctx context.Context, foods []v1alpha1.FoodItem) (int, error) {
	for _, f := range foods {
		if err := f.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO foods (id, name, food_group, calories, proteins, meals, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			food_group = excluded.food_group,
			calories = excluded.calories,
			proteins = excluded.proteins,
			meals = excluded.meals,
			attributes = excluded.attributes`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for _, f := range foods {
		meals, err := json.Marshal(mealsOrEmpty(f.Meals))
		if err != nil {
			return 0, fmt.Errorf("failed to encode meals of food %d: %w", f.ID, err)
		}
		attrs, err := json.Marshal(attributesOrEmpty(f.Attributes))
		if err != nil {
			return 0, fmt.Errorf("failed to encode attributes of food %d: %w", f.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, f.ID, f.Name, string(f.Group), f.Calories, f.Proteins, string(meals), string(attrs)); err != nil {
			return 0, fmt.Errorf("failed to import food %d: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(foods), nil
}

// CountFoods returns the number of stored foods.
func (s *Store) CountFoods(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return n, nil
}

// Name identifies the store as a catalog source.
func (s *Store) Name() string {
	return "sqlite:" + s.path
}

// Load returns every stored food ordered by id.
func (s *Store) Load(ctx context.Context) ([]v1alpha1.FoodItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, food_group, calories, proteins, meals, attributes
		FROM foods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	var out []v1alpha1.FoodItem
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foods: %w", err)
	}
	return out, nil
}

func scanFood(rows *sql.Rows) (v1alpha1.FoodItem, error) {
	var (
		f            v1alpha1.FoodItem
		group        string
		meals, attrs string
	)
	if err := rows.Scan(&f.ID, &f.Name, &group, &f.Calories, &f.Proteins, &meals, &attrs); err != nil {
		return f, fmt.Errorf("failed to scan food: %w", err)
	}
	f.Group = v1alpha1.FoodGroup(group)
	if err := json.Unmarshal([]byte(meals), &f.Meals); err != nil {
		return f, fmt.Errorf("food %d: invalid meals: %w", f.ID, err)
	}
	if err := json.Unmarshal([]byte(attrs), &f.Attributes); err != nil {
		return f, fmt.Errorf("food %d: invalid attributes: %w", f.ID, err)
	}
	if len(f.Meals) == 0 {
		f.Meals = nil
	}
	if len(f.Attributes) == 0 {
		f.Attributes = nil
	}
	return f, nil
}

func mealsOrEmpty(m []v1alpha1.MealType) []v1alpha1.MealType {
	if m == nil {
		return []v1alpha1.MealType{}
	}
	return m
}

func attributesOrEmpty(a map[string]float64) map[string]float64 {
	if a == nil {
		return map[string]float64{}
	}
	return a
}
