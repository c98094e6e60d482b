package domain

import (
	"cmp"
	"slices"
)

// Age buckets used by brand insights.
const (
	AgeUnder18 = "Under 18"
	Age18To24  = "18-24"
	Age25To34  = "25-34"
	Age35To44  = "35-44"
	Age45To54  = "45-54"
	Age55Plus  = "55+"
)

// TopInterests is how many interests brand insights report.
const TopInterests = 5

// Insights summarizes who reviewed a brand's products and how they rated
// them.
type Insights struct {
	ReviewCount        int                  `json:"reviewCount"`
	AverageRating      float64              `json:"averageRating"`
	AgeDistribution    []ChartPoint         `json:"ageDistribution"`
	GenderDistribution []ChartPoint         `json:"genderDistribution"`
	UserInterests      []ChartPoint         `json:"userInterests"`
	ProductPerformance []ProductPerformance `json:"productPerformance"`
}

// ChartPoint is one labelled value in a chart series.
type ChartPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ProductPerformance is the per-product rating summary in brand insights.
type ProductPerformance struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	ReviewCount   int     `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
	Category      string  `json:"category"`
}

// AgeRange returns the insights bucket for age.
func AgeRange(age int) string {
	switch {
	case age < 18:
		return AgeUnder18
	case age < 25:
		return Age18To24
	case age < 35:
		return Age25To34
	case age < 45:
		return Age35To44
	case age < 55:
		return Age45To54
	default:
		return Age55Plus
	}
}

// Tally counts labels while remembering the order they were first seen.
type Tally struct {
	order  []string
	counts map[string]int
}

// NewTally returns a tally pre-seeded with zero counts for labels.
func NewTally(labels ...string) *Tally {
	t := &Tally{counts: make(map[string]int, len(labels))}
	for _, l := range labels {
		t.Add(l, 0)
	}
	return t
}

// Add increases the count for label by n.
func (t *Tally) Add(label string, n int) {
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label] += n
}

// Chart returns the tally sorted by count descending. Ties keep first-seen
// order. A positive limit keeps only the top entries.
func (t *Tally) Chart(limit int) []ChartPoint {
	points := make([]ChartPoint, 0, len(t.order))
	for _, l := range t.order {
		points = append(points, ChartPoint{Label: l, Value: t.counts[l]})
	}
	slices.SortStableFunc(points, func(a, b ChartPoint) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	return points
}
