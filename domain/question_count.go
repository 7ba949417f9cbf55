package domain

import "strings"

// Interview topic buckets in the order an interview walks through them.
const (
	CategoryIntroduction = "Introduction"
	CategoryExperience   = "Experience & Achievements"
	CategoryDomain       = "Domain Specific"
	CategoryBehavioral   = "Behavioral & Situational"
	CategoryRoleSpecific = "Role-Specific"
	CategoryClosing      = "Closing"
)

const (
	// MaxQuestions is the hard cap on system turns per interview. The turn
	// that reaches it is closed.
	MaxQuestions = 15
	// MaxPerCategory caps questions asked in any one category.
	MaxPerCategory = 3
)

// Categories lists the buckets in canonical order.
var Categories = []string{
	CategoryIntroduction,
	CategoryExperience,
	CategoryDomain,
	CategoryBehavioral,
	CategoryRoleSpecific,
	CategoryClosing,
}

// NormalizeCategory maps a model-supplied category name onto one of Categories.
// It returns "" when nothing matches.
func NormalizeCategory(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return ""
	case strings.HasPrefix(n, "intro"):
		return CategoryIntroduction
	case strings.HasPrefix(n, "experience"), strings.Contains(n, "achievement"):
		return CategoryExperience
	case strings.HasPrefix(n, "domain"), strings.Contains(n, "technical"):
		return CategoryDomain
	case strings.HasPrefix(n, "behavio"), strings.Contains(n, "situational"):
		return CategoryBehavioral
	case strings.HasPrefix(n, "role"):
		return CategoryRoleSpecific
	case strings.HasPrefix(n, "clos"), strings.HasPrefix(n, "wrap"):
		return CategoryClosing
	}
	return ""
}

func categoryIndex(category string) int {
	for i, c := range Categories {
		if c == category {
			return i
		}
	}
	return -1
}

// QuestionCount is the running tally carried on every system turn.
type QuestionCount struct {
	Total       int            `json:"total" validate:"gte=0,lte=15"`
	PerCategory map[string]int `json:"per_category" validate:"dive,gte=0,lte=3"`
}

// Sum adds up the per-category counts.
func (q QuestionCount) Sum() int {
	sum := 0
	for _, n := range q.PerCategory {
		sum += n
	}
	return sum
}

func (q QuestionCount) hasRoom(category string) bool {
	return q.PerCategory[category] < MaxPerCategory
}

// Next applies the count-merge rule for one more question: all prior
// categories are preserved, total grows by one and the chosen category is
// incremented or initialised to one.
//
// The requested category is normalised first; an unknown name falls back to
// previous (the category of the last question). A full category is replaced
// by the next one in canonical order that still has room. When no later
// category has room the interview has nothing left to ask, so exhausted is
// true and the turn is booked against any category with room.
func (q QuestionCount) Next(requested, previous string) (next QuestionCount, category string, exhausted bool) {
	category = NormalizeCategory(requested)
	if category == "" {
		category = NormalizeCategory(previous)
	}
	if category == "" {
		category = CategoryIntroduction
	}

	if !q.hasRoom(category) {
		found := false
		for _, c := range Categories[categoryIndex(category)+1:] {
			if q.hasRoom(c) {
				category, found = c, true
				break
			}
		}
		if !found {
			exhausted = true
			for _, c := range Categories {
				if q.hasRoom(c) {
					category = c
					break
				}
			}
		}
	}

	next = QuestionCount{
		Total:       q.Total + 1,
		PerCategory: make(map[string]int, len(q.PerCategory)+1),
	}
	for k, v := range q.PerCategory {
		next.PerCategory[k] = v
	}
	next.PerCategory[category]++

	return next, category, exhausted
}
