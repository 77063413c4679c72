package foodgroup

import (
	"fmt"
	"strings"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// Slug returns the lower-case, underscore-separated form of a group name:
// "Beans, Peas, Lentils" becomes "beans_peas_lentils".
func Slug(g v1alpha1.FoodGroup) string {
	return slugify(string(g))
}

func slugify(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// Parse resolves a display name or slug to a food group. Matching ignores
// case and punctuation.
func Parse(name string) (v1alpha1.FoodGroup, error) {
	key := slugify(name)
	if key == "" {
		return "", errEmptyGroup
	}
	for _, g := range v1alpha1.FoodGroups {
		if Slug(g) == key {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", errUnknownGroup, name)
}

// IsGroup reports whether name resolves to a food group.
func IsGroup(name string) bool {
	_, err := Parse(name)
	return err == nil
}

// ExpandCategory returns the groups of a category. The result is a fresh slice.
func ExpandCategory(name string) ([]v1alpha1.FoodGroup, error) {
	groups, ok := categories[Category(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownCategory, name)
	}
	return append([]v1alpha1.FoodGroup(nil), groups...), nil
}

// InCategory reports whether g belongs to the named category.
func InCategory(g v1alpha1.FoodGroup, name string) bool {
	groups, err := ExpandCategory(name)
	if err != nil {
		return false
	}
	for _, c := range groups {
		if c == g {
			return true
		}
	}
	return false
}

// IsLessCommon reports whether g is one of the groups surprise additions favour.
func IsLessCommon(g v1alpha1.FoodGroup) bool {
	for _, lc := range lessCommon {
		if lc == g {
			return true
		}
	}
	return false
}

// LessCommon returns the groups surprise additions favour.
func LessCommon() []v1alpha1.FoodGroup {
	return append([]v1alpha1.FoodGroup(nil), lessCommon...)
}
