package patterns

import "sort"

// Usage trends.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
)

// Evolution summarizes how a document's usage is developing.
type Evolution struct {
	DocumentID       string   `json:"documentId"`
	Found            bool     `json:"found"`
	UsageTrend       string   `json:"usageTrend,omitempty"`
	SuccessRate      float64  `json:"successRate"`
	Adaptability     float64  `json:"adaptability"`
	ContextDiversity int      `json:"contextDiversity"`
	Recommendations  []string `json:"recommendations,omitempty"`
}

// Evolution recommendations.
const (
	RecommendSimplify = "consider simplifying the document to raise its success rate"
	RecommendVariants = "consider offering variants that include the common modifications"
	RecommendAdapt    = "try adapting the document to other domains"
	RecommendUpdate   = "not used for more than 30 days; it may need an update"
)

// AnalyzeEvolution reports trend, adaptability and improvement hints for
// docID. Found is false when the document has no recorded history.
func (p *Predictor) AnalyzeEvolution(docID string) Evolution {
	pat, ok := p.Pattern(docID)
	if !ok {
		return Evolution{DocumentID: docID}
	}

	ev := Evolution{
		DocumentID:       docID,
		Found:            true,
		UsageTrend:       TrendStable,
		SuccessRate:      pat.SuccessRate,
		Adaptability:     float64(len(pat.CommonModifications)) / float64(max(pat.UsageCount, 1)),
		ContextDiversity: len(pat.ContextsUsedIn),
		Recommendations:  []string{},
	}
	if pat.UsageCount > increasingThreshold {
		ev.UsageTrend = TrendIncreasing
	}

	if pat.SuccessRate < 0.7 {
		ev.Recommendations = append(ev.Recommendations, RecommendSimplify)
	}
	if len(pat.CommonModifications) > 3 {
		ev.Recommendations = append(ev.Recommendations, RecommendVariants)
	}
	if len(pat.ContextsUsedIn) < 2 {
		ev.Recommendations = append(ev.Recommendations, RecommendAdapt)
	}
	if p.daysSince(pat.LastUsed) > recencyWindowDays {
		ev.Recommendations = append(ev.Recommendations, RecommendUpdate)
	}
	return ev
}

// UsageCount pairs a document with its usage count.
type UsageCount struct {
	DocumentID string `json:"documentId"`
	UsageCount int    `json:"usageCount"`
}

// Stats summarizes all learned patterns.
type Stats struct {
	TotalPatterns      int          `json:"totalPatterns"`
	ActivePatterns     int          `json:"activePatterns"`
	AverageSuccessRate float64      `json:"averageSuccessRate"`
	MostUsed           []UsageCount `json:"mostUsed"`
}

// Stats counts patterns, those used within the last 30 days, the mean
// success rate and the five most used documents.
func (p *Predictor) Stats() Stats {
	all := p.Patterns(0)

	st := Stats{TotalPatterns: len(all), MostUsed: []UsageCount{}}
	var rateSum float64
	for _, pat := range all {
		rateSum += pat.SuccessRate
		if p.daysSince(pat.LastUsed) < activeWindowDays {
			st.ActivePatterns++
		}
	}
	st.AverageSuccessRate = rateSum / float64(max(len(all), 1))

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UsageCount > all[j].UsageCount
	})
	for i := 0; i < len(all) && i < mostUsedLimit; i++ {
		st.MostUsed = append(st.MostUsed, UsageCount{DocumentID: all[i].ID, UsageCount: all[i].UsageCount})
	}
	return st
}
