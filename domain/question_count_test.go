package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Introduction":              CategoryIntroduction,
		"introduction":              CategoryIntroduction,
		"Experience & Achievements": CategoryExperience,
		"Domain Specific":           CategoryDomain,
		"Behavioral & Situational":  CategoryBehavioral,
		"behavioural":               CategoryBehavioral,
		"Role-Specific":             CategoryRoleSpecific,
		"Closing":                   CategoryClosing,
		"":                          "",
		"Weather":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), in)
	}
}

func TestNextPreservesPriorCategories(t *testing.T) {
	count := QuestionCount{Total: 3, PerCategory: map[string]int{
		CategoryIntroduction: 1,
		CategoryExperience:   2,
	}}

	next, category, exhausted := count.Next("Domain Specific", CategoryExperience)

	assert.False(t, exhausted)
	assert.Equal(t, CategoryDomain, category)
	assert.Equal(t, 4, next.Total)
	assert.Equal(t, map[string]int{
		CategoryIntroduction: 1,
		CategoryExperience:   2,
		CategoryDomain:       1,
	}, next.PerCategory)
	assert.Equal(t, next.Total, next.Sum())
	// original untouched
	assert.Equal(t, 3, count.Total)
	assert.NotContains(t, count.PerCategory, CategoryDomain)
}

func TestNextIncrementsExistingCategory(t *testing.T) {
	count := QuestionCount{Total: 1, PerCategory: map[string]int{CategoryIntroduction: 1}}
	next, category, _ := count.Next(CategoryIntroduction, CategoryIntroduction)
	assert.Equal(t, CategoryIntroduction, category)
	assert.Equal(t, 2, next.PerCategory[CategoryIntroduction])
}

func TestNextRebucketsFullCategory(t *testing.T) {
	count := QuestionCount{Total: 4, PerCategory: map[string]int{
		CategoryIntroduction: 1,
		CategoryDomain:       3,
	}}

	next, category, exhausted := count.Next(CategoryDomain, CategoryDomain)

	assert.False(t, exhausted)
	assert.Equal(t, CategoryBehavioral, category)
	assert.Equal(t, 3, next.PerCategory[CategoryDomain])
	assert.Equal(t, 1, next.PerCategory[CategoryBehavioral])
}

func TestNextUnknownCategoryFallsBackToPrevious(t *testing.T) {
	count := QuestionCount{Total: 1, PerCategory: map[string]int{CategoryExperience: 1}}
	_, category, _ := count.Next("something else", CategoryExperience)
	assert.Equal(t, CategoryExperience, category)
}

func TestNextExhaustedWhenClosingFull(t *testing.T) {
	count := QuestionCount{Total: 5, PerCategory: map[string]int{
		CategoryIntroduction: 2,
		CategoryClosing:      3,
	}}

	next, category, exhausted := count.Next(CategoryClosing, CategoryClosing)

	assert.True(t, exhausted)
	assert.Equal(t, CategoryIntroduction, category)
	assert.Equal(t, 3, next.PerCategory[CategoryIntroduction])
	for _, n := range next.PerCategory {
		assert.LessOrEqual(t, n, MaxPerCategory)
	}
}

func TestNextNeverExceedsCategoryCap(t *testing.T) {
	count := QuestionCount{}
	previous := ""
	for i := 0; i < MaxQuestions; i++ {
		var category string
		count, category, _ = count.Next(CategoryDomain, previous)
		previous = category
		assert.Equal(t, i+1, count.Total)
		assert.Equal(t, count.Total, count.Sum())
		for _, n := range count.PerCategory {
			assert.LessOrEqual(t, n, MaxPerCategory)
		}
	}
}
