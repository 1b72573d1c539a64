package session

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/quizpulse/quizpulse/internal/bank"
)

// AllCategories is the filter value that selects every question.
const AllCategories = "all"

// CollectCategories returns the distinct category labels of questions in
// locale-aware order.
func CollectCategories(questions []bank.Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	// Collators are not safe for concurrent use.
	c := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i], out[j]) < 0
	})
	return out
}

// Filter returns deep copies of the questions in category, preserving
// order. An empty category or AllCategories selects everything.
func Filter(questions []bank.Question, category string) []bank.Question {
	if category == "" || category == AllCategories {
		return bank.CloneAll(questions)
	}
	var out []bank.Question
	for _, q := range questions {
		if q.Category == category {
			out = append(out, q.Clone())
		}
	}
	return out
}

// FailedOnly returns deep copies of the questions whose keys are in failed.
func FailedOnly(questions []bank.Question, failed map[string]struct{}) []bank.Question {
	var out []bank.Question
	for _, q := range questions {
		if _, ok := failed[q.Key()]; ok {
			out = append(out, q.Clone())
		}
	}
	return out
}
