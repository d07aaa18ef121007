package signals

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hrplus/talent-hub/internal/models"
)

// Bias risk levels attached to a signal aggregate.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Bias risk thresholds over rater-category deviations from the overall mean.
const (
	riskHighDeviation   = 2.0
	riskMediumDeviation = 1.0
	factorDeviation     = 1.5
)

// ResponseInput is one rating response prepared for aggregation.
type ResponseInput struct {
	ResponseID       uuid.UUID
	RaterID          uuid.UUID
	RaterCategory    string
	RaterWeight      float64
	Rating           float64
	QuestionText     string
	QuestionCategory string
}

// Aggregate is the computed result for one (employee, signal) pair.
type Aggregate struct {
	Code            string
	RawScore        float64 // mean of rater-weighted ratings, source scale
	NormalizedScore float64 // 0-100
	Confidence      float64
	BiasRiskLevel   string
	BiasFactors     []string
	RaterBreakdown  map[string]models.RaterCategoryStats
	EvidenceIDs     []uuid.UUID
	EvidenceSummary string
}

// categoryAccumulator tracks unweighted per-category stats during aggregation.
type categoryAccumulator struct {
	sum    float64
	count  int
	raters map[uuid.UUID]struct{}
}

// AggregateSignals computes one Aggregate per signal touched by the supplied
// responses. Each response contributes its rating multiplied by its rater
// category weight; unweighted values feed the per-category breakdown and the
// bias-risk analysis. anonymityThreshold only shapes the confidence formula
// here; the anonymity floor itself is enforced by the caller on request counts.
func AggregateSignals(responses []ResponseInput, anonymityThreshold int) []Aggregate {
	if anonymityThreshold <= 0 {
		anonymityThreshold = 3
	}

	bySignal := map[string][]ResponseInput{}
	for _, r := range responses {
		for _, code := range MapToSignals(r.QuestionText, r.QuestionCategory) {
			bySignal[code] = append(bySignal[code], r)
		}
	}

	codes := make([]string, 0, len(bySignal))
	for code := range bySignal {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	aggregates := make([]Aggregate, 0, len(codes))
	for _, code := range codes {
		aggregates = append(aggregates, aggregateSignal(code, bySignal[code], anonymityThreshold))
	}

	return aggregates
}

func aggregateSignal(code string, responses []ResponseInput, anonymityThreshold int) Aggregate {
	var weightedSum, rawSum float64

	categories := map[string]*categoryAccumulator{}
	evidence := make([]uuid.UUID, 0, len(responses))

	for _, r := range responses {
		weightedSum += r.Rating * r.RaterWeight
		rawSum += r.Rating
		evidence = append(evidence, r.ResponseID)

		acc, ok := categories[r.RaterCategory]
		if !ok {
			acc = &categoryAccumulator{raters: map[uuid.UUID]struct{}{}}
			categories[r.RaterCategory] = acc
		}

		acc.sum += r.Rating
		acc.count++
		acc.raters[r.RaterID] = struct{}{}
	}

	n := len(responses)
	rawScore := weightedSum / float64(n)
	overallMean := rawSum / float64(n)

	breakdown := make(map[string]models.RaterCategoryStats, len(categories))
	for name, acc := range categories {
		breakdown[name] = models.RaterCategoryStats{
			Average: acc.sum / float64(acc.count),
			Count:   acc.count,
			Raters:  len(acc.raters),
		}
	}

	riskLevel, factors := assessBiasRisk(breakdown, overallMean)

	return Aggregate{
		Code:            code,
		RawScore:        rawScore,
		NormalizedScore: normalize(rawScore),
		Confidence:      confidence(n, len(categories), anonymityThreshold),
		BiasRiskLevel:   riskLevel,
		BiasFactors:     factors,
		RaterBreakdown:  breakdown,
		EvidenceIDs:     evidence,
		EvidenceSummary: fmt.Sprintf("%d responses from %d rater categories", n, len(categories)),
	}
}

// normalize converts a 5-point-scale score to 0-100, clamped.
func normalize(score float64) float64 {
	v := score / 5 * 100
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}

	return v
}

// confidence rewards both response volume and rater diversity:
// 0.6 x min(1, n / (2 x threshold)) + 0.4 x min(1, categories / 3).
func confidence(responseCount, categoryCount, anonymityThreshold int) float64 {
	volume := float64(responseCount) / float64(2*anonymityThreshold)
	if volume > 1 {
		volume = 1
	}

	diversity := float64(categoryCount) / 3
	if diversity > 1 {
		diversity = 1
	}

	return 0.6*volume + 0.4*diversity
}

// assessBiasRisk inspects how far each rater category's unweighted average
// sits from the overall mean. Categories deviating beyond the factor
// threshold are listed, and single-rater categories are flagged since one
// voice dominates that perspective.
func assessBiasRisk(breakdown map[string]models.RaterCategoryStats, overallMean float64) (string, []string) {
	var maxDeviation float64

	factors := []string{}

	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stats := breakdown[name]

		deviation := stats.Average - overallMean
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > maxDeviation {
			maxDeviation = deviation
		}

		if deviation > factorDeviation {
			factors = append(factors, fmt.Sprintf("%s ratings deviate %.1f points from the overall mean", name, deviation))
		}

		if stats.Raters == 1 {
			factors = append(factors, fmt.Sprintf("limited perspective: single rater in %s category", name))
		}
	}

	switch {
	case maxDeviation > riskHighDeviation:
		return RiskHigh, factors
	case maxDeviation > riskMediumDeviation:
		return RiskMedium, factors
	default:
		return RiskLow, factors
	}
}

// EvidenceWeights returns the contribution weight for each evidence link of a
// snapshot: equal shares summing to 1.
func EvidenceWeights(evidenceCount int) float64 {
	if evidenceCount == 0 {
		return 0
	}

	return 1 / float64(evidenceCount)
}
