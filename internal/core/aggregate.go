package core

import "math"

// Aggregate tallies labels over the complete, ordered result sequence.
// Degraded items count as neutral and are also reported in DegradedCount.
func Aggregate(results []ClassificationResult) BatchResult {
	br := BatchResult{
		Results: results,
		Total:   len(results),
	}
	for _, r := range results {
		switch r.Label {
		case LabelPositive:
			br.PositiveCount++
		case LabelNegative:
			br.NegativeCount++
		default:
			br.NeutralCount++
		}
		if r.Degraded {
			br.DegradedCount++
		}
	}
	return br
}

// ComputeStats summarizes text lengths in characters.
func ComputeStats(texts []ReviewText) TextStats {
	if len(texts) == 0 {
		return TextStats{}
	}

	stats := TextStats{
		TotalTexts: len(texts),
		MinLength:  math.MaxInt,
	}
	total := 0
	for _, t := range texts {
		n := CharLen(t.Text)
		total += n
		stats.MinLength = min(stats.MinLength, n)
		stats.MaxLength = max(stats.MaxLength, n)
	}
	stats.AvgLength = round2(float64(total) / float64(len(texts)))
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
