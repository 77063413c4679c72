package foodgroup

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

var _ = Describe("Slug", func() {
	It("should collapse punctuation and spaces", func() {
		Expect(Slug(v1alpha1.GroupBeansPeasLentils)).To(Equal("beans_peas_lentils"))
		Expect(Slug(v1alpha1.GroupDarkGreenVegetables)).To(Equal("dark_green_vegetables"))
		Expect(Slug(v1alpha1.GroupRedOrangeVegetables)).To(Equal("red_and_orange_vegetables"))
	})

	It("should give every group a distinct slug", func() {
		seen := map[string]bool{}
		for _, g := range v1alpha1.FoodGroups {
			Expect(seen).NotTo(HaveKey(Slug(g)))
			seen[Slug(g)] = true
		}
	})
})

var _ = Describe("Parse", func() {
	Context("with display names", func() {
		It("should resolve exact names", func() {
			g, err := Parse("Whole Grains")
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(Equal(v1alpha1.GroupWholeGrains))
		})

		It("should ignore case and punctuation", func() {
			g, err := Parse("nuts seeds SOY products")
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(Equal(v1alpha1.GroupNutsSeedsSoy))
		})
	})

	Context("with slugs", func() {
		It("should resolve every group from its slug", func() {
			for _, want := range v1alpha1.FoodGroups {
				g, err := Parse(Slug(want))
				Expect(err).NotTo(HaveOccurred())
				Expect(g).To(Equal(want))
			}
		})
	})

	Context("with invalid input", func() {
		It("should reject empty names", func() {
			_, err := Parse("  ")
			Expect(err).To(MatchError(errEmptyGroup))
		})

		It("should reject nutrient keys", func() {
			_, err := Parse("calories")
			Expect(err).To(MatchError(ContainSubstring("unknown food group")))
			Expect(IsGroup("proteins")).To(BeFalse())
		})
	})
})

var _ = Describe("ExpandCategory", func() {
	It("should expand vegetable to the four vegetable groups", func() {
		groups, err := ExpandCategory("vegetable")
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(ConsistOf(
			v1alpha1.GroupDarkGreenVegetables,
			v1alpha1.GroupRedOrangeVegetables,
			v1alpha1.GroupStarchyVegetables,
			v1alpha1.GroupOtherVegetables,
		))
	})

	It("should expand protein to meat, seafood, legumes and nuts", func() {
		groups, err := ExpandCategory("Protein")
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(4))
		Expect(InCategory(v1alpha1.GroupSeafood, "protein")).To(BeTrue())
		Expect(InCategory(v1alpha1.GroupDairy, "protein")).To(BeFalse())
	})

	It("should return an independent slice", func() {
		groups, _ := ExpandCategory("vegetable")
		groups[0] = v1alpha1.GroupOil
		again, _ := ExpandCategory("vegetable")
		Expect(again).NotTo(ContainElement(v1alpha1.GroupOil))
	})

	It("should reject unknown categories", func() {
		_, err := ExpandCategory("dessert")
		Expect(err).To(HaveOccurred())
		Expect(InCategory(v1alpha1.GroupFruits, "dessert")).To(BeFalse())
	})
})

var _ = Describe("LessCommon", func() {
	It("should flag nuts, dark greens and seafood", func() {
		Expect(IsLessCommon(v1alpha1.GroupSeafood)).To(BeTrue())
		Expect(IsLessCommon(v1alpha1.GroupNutsSeedsSoy)).To(BeTrue())
		Expect(IsLessCommon(v1alpha1.GroupDarkGreenVegetables)).To(BeTrue())
		Expect(IsLessCommon(v1alpha1.GroupWholeGrains)).To(BeFalse())
		Expect(LessCommon()).To(HaveLen(3))
	})
})
