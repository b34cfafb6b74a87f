package engine

import (
	"sort"

	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/model"
)

const topCategories = 10

// CategoryCount is one entry of the category histogram.
type CategoryCount struct {
	Category string
	Count    int
}

// Summary aggregates a classification run.
type Summary struct {
	BySource         map[model.Source]int
	TopCategories    []CategoryCount
	AI               llm.Snapshot
	Total            int
	Unmatched        int
	RulesApplied     int
	CacheHits        int
	MeanConfidence   float64
	MedianConfidence float64
	MinConfidence    float64
	MaxConfidence    float64
}

// Summarize computes per-source counts, confidence statistics over matched
// rows and the most frequent categories.
func Summarize(rows []model.Row) Summary {
	s := Summary{
		BySource: make(map[model.Source]int),
		Total:    len(rows),
	}

	counts := make(map[string]int)
	var order []string
	var confs []float64

	for _, r := range rows {
		src := r.Result.Source()
		s.BySource[src]++
		if src == model.SourceAIRule {
			s.RulesApplied++
		}
		if !r.Result.Matched() {
			s.Unmatched++
			continue
		}

		confs = append(confs, r.Result.Confidence())
		cat := r.Result.Category()
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat]++
	}

	if len(confs) > 0 {
		sort.Float64s(confs)
		sum := 0.0
		for _, c := range confs {
			sum += c
		}
		s.MeanConfidence = sum / float64(len(confs))
		s.MinConfidence = confs[0]
		s.MaxConfidence = confs[len(confs)-1]
		mid := len(confs) / 2
		if len(confs)%2 == 1 {
			s.MedianConfidence = confs[mid]
		} else {
			s.MedianConfidence = (confs[mid-1] + confs[mid]) / 2
		}
	}

	// Stable sort keeps first-appearance order among equal counts.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	for _, cat := range order[:min(topCategories, len(order))] {
		s.TopCategories = append(s.TopCategories, CategoryCount{Category: cat, Count: counts[cat]})
	}
	return s
}

// MatchRate is the share of rows that received a category.
func (s Summary) MatchRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-s.Unmatched) / float64(s.Total)
}
