package bias

import (
	"fmt"
	"sort"
	"time"

	"github.com/hrplus/talent-hub/internal/models"
)

// Detector runs the configured statistical bias detectors over a rating batch.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given configuration.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// MinimumSampleSize exposes the guard threshold so callers can report why a
// batch produced no findings.
func (d *Detector) MinimumSampleSize() int {
	return d.cfg.MinimumSampleSize
}

// Run dispatches to the detectors selected by action and unions their
// findings. The second return value is false when the batch is below the
// minimum sample size; no detector runs in that case.
func (d *Detector) Run(action string, ratings []models.RatingSample) ([]models.BiasPattern, bool) {
	if len(ratings) < d.cfg.MinimumSampleSize {
		return nil, false
	}

	var patterns []models.BiasPattern

	switch action {
	case models.ActionDetectRecencyBias:
		patterns = d.DetectRecency(ratings)
	case models.ActionDetectDistributionBias:
		patterns = append(d.DetectDistribution(ratings), d.DetectCentralTendency(ratings)...)
	case models.ActionDetectHaloHorn:
		patterns = d.DetectHaloHorn(ratings)
	default:
		patterns = d.DetectDistribution(ratings)
		patterns = append(patterns, d.DetectCentralTendency(ratings)...)
		patterns = append(patterns, d.DetectHaloHorn(ratings)...)
		patterns = append(patterns, d.DetectRecency(ratings)...)
		patterns = append(patterns, d.DetectContrast(ratings)...)
	}

	return patterns, true
}

// overallScores extracts the overall score of each rating in input order.
func overallScores(ratings []models.RatingSample) []float64 {
	scores := make([]float64, len(ratings))
	for i, r := range ratings {
		scores[i] = r.OverallScore
	}

	return scores
}

// DetectDistribution checks the batch mean for leniency (inflated ratings) or
// severity (deflated ratings). The two are mutually exclusive for any single
// batch since one mean cannot sit above and below both thresholds.
func (d *Detector) DetectDistribution(ratings []models.RatingSample) []models.BiasPattern {
	m := mean(overallScores(ratings))

	switch {
	case m > d.cfg.LeniencyMeanThreshold:
		severity := models.SeverityLow
		if m > d.cfg.LeniencyHighMean {
			severity = models.SeverityHigh
		} else if m > d.cfg.LeniencyMediumMean {
			severity = models.SeverityMedium
		}

		var affected []models.AffectedEmployee
		for _, r := range ratings {
			if r.OverallScore >= d.cfg.LeniencyAffectedMinimum {
				affected = append(affected, models.AffectedEmployee{
					EmployeeID: r.EmployeeID,
					Impact:     fmt.Sprintf("overall score %.1f", r.OverallScore),
				})
			}
		}

		return []models.BiasPattern{{
			Type:              models.BiasLeniency,
			Severity:          severity,
			Confidence:        clampConfidence(0.6+(m-d.cfg.LeniencyMeanThreshold)*0.3, 0.95),
			EvidenceCount:     len(ratings),
			AffectedEmployees: affected,
			Description:       fmt.Sprintf("Average overall rating of %.2f across %d reviews is unusually high", m, len(ratings)),
		}}

	case m < d.cfg.SeverityMeanThreshold:
		severity := models.SeverityLow
		if m < d.cfg.SeverityHighMean {
			severity = models.SeverityHigh
		} else if m < d.cfg.SeverityMediumMean {
			severity = models.SeverityMedium
		}

		var affected []models.AffectedEmployee
		for _, r := range ratings {
			if r.OverallScore <= d.cfg.SeverityAffectedMaximum {
				affected = append(affected, models.AffectedEmployee{
					EmployeeID: r.EmployeeID,
					Impact:     fmt.Sprintf("overall score %.1f", r.OverallScore),
				})
			}
		}

		return []models.BiasPattern{{
			Type:              models.BiasSeverity,
			Severity:          severity,
			Confidence:        clampConfidence(0.6+(d.cfg.SeverityMeanThreshold-m)*0.3, 0.95),
			EvidenceCount:     len(ratings),
			AffectedEmployees: affected,
			Description:       fmt.Sprintf("Average overall rating of %.2f across %d reviews is unusually low", m, len(ratings)),
		}}
	}

	return nil
}

// DetectCentralTendency fires when scores cluster tightly around the middle
// of the scale: low spread and a large share of ratings in the mid range.
func (d *Detector) DetectCentralTendency(ratings []models.RatingSample) []models.BiasPattern {
	scores := overallScores(ratings)
	std := stdDev(scores)

	midCount := 0
	for _, s := range scores {
		if s >= d.cfg.CentralMidRangeLow && s <= d.cfg.CentralMidRangeHigh {
			midCount++
		}
	}
	midShare := float64(midCount) / float64(len(scores))

	if std >= d.cfg.CentralStdDevThreshold || midShare <= d.cfg.CentralMidRangeShare {
		return nil
	}

	severity := models.SeverityMedium
	if std < d.cfg.CentralHighStdDev {
		severity = models.SeverityHigh
	}

	var affected []models.AffectedEmployee
	for _, r := range ratings {
		if r.OverallScore >= d.cfg.CentralMidRangeLow && r.OverallScore <= d.cfg.CentralMidRangeHigh {
			affected = append(affected, models.AffectedEmployee{
				EmployeeID: r.EmployeeID,
				Impact:     fmt.Sprintf("mid-range score %.1f", r.OverallScore),
			})
		}
	}

	return []models.BiasPattern{{
		Type:              models.BiasCentralTendency,
		Severity:          severity,
		Confidence:        clampConfidence(0.5+(d.cfg.CentralStdDevThreshold-std)*0.8, 0.9),
		EvidenceCount:     len(ratings),
		AffectedEmployees: affected,
		Description: fmt.Sprintf("%.0f%% of ratings fall in the %.1f-%.1f mid range with std dev %.2f",
			midShare*100, d.cfg.CentralMidRangeLow, d.cfg.CentralMidRangeHigh, std),
	}}
}

// DetectHaloHorn evaluates each rating independently: near-identical scores
// across enough dimensions suggest one overall impression drove them all.
// Each qualifying rating yields its own pattern naming only that employee.
func (d *Detector) DetectHaloHorn(ratings []models.RatingSample) []models.BiasPattern {
	var patterns []models.BiasPattern

	for _, r := range ratings {
		if len(r.Scores) < 2 {
			continue
		}

		values := make([]float64, len(r.Scores))
		for i, s := range r.Scores {
			values[i] = s.Score
		}

		std := stdDev(values)
		if std >= d.cfg.HaloHornStdDevThreshold || len(r.Scores) < d.cfg.HaloHornMinDimensions {
			continue
		}

		m := mean(values)

		severity := models.SeverityLow
		if std < d.cfg.HaloHornMediumStdDev {
			severity = models.SeverityMedium
		}

		affected := []models.AffectedEmployee{{
			EmployeeID: r.EmployeeID,
			Impact:     fmt.Sprintf("uniform scores across %d dimensions", len(r.Scores)),
		}}
		confidence := clampConfidence(0.5+(d.cfg.HaloHornStdDevThreshold-std)*1.5, 0.85)

		switch {
		case m >= d.cfg.HaloMeanMinimum:
			patterns = append(patterns, models.BiasPattern{
				Type:              models.BiasHalo,
				Severity:          severity,
				Confidence:        confidence,
				EvidenceCount:     len(r.Scores),
				AffectedEmployees: affected,
				Description: fmt.Sprintf("Uniformly high scores (mean %.2f, std dev %.2f) across %d dimensions",
					m, std, len(r.Scores)),
			})
		case m <= d.cfg.HornMeanMaximum:
			patterns = append(patterns, models.BiasPattern{
				Type:              models.BiasHorn,
				Severity:          severity,
				Confidence:        confidence,
				EvidenceCount:     len(r.Scores),
				AffectedEmployees: affected,
				Description: fmt.Sprintf("Uniformly low scores (mean %.2f, std dev %.2f) across %d dimensions",
					m, std, len(r.Scores)),
			})
		}
	}

	return patterns
}

// DetectRecency fires when a larger batch of reviews was completed within a
// very short window, suggesting rushed back-to-back reviews.
func (d *Detector) DetectRecency(ratings []models.RatingSample) []models.BiasPattern {
	var dates []time.Time
	for _, r := range ratings {
		if r.ReviewDate != nil {
			dates = append(dates, *r.ReviewDate)
		}
	}

	if len(dates) < 2 {
		return nil
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	spanDays := dates[len(dates)-1].Sub(dates[0]).Hours() / 24

	if spanDays >= d.cfg.RecencySpanDays || len(ratings) <= d.cfg.RecencyMinBatchSize {
		return nil
	}

	affected := make([]models.AffectedEmployee, len(ratings))
	for i, r := range ratings {
		affected[i] = models.AffectedEmployee{
			EmployeeID: r.EmployeeID,
			Impact:     "review completed rapidly",
		}
	}

	return []models.BiasPattern{{
		Type:              models.BiasRecency,
		Severity:          models.SeverityLow,
		Confidence:        0.6,
		EvidenceCount:     len(dates),
		AffectedEmployees: affected,
		Description:       fmt.Sprintf("%d reviews completed within %.1f days", len(ratings), spanDays),
	}}
}

// DetectContrast walks consecutive overall scores in submission order and
// fires when large swings dominate, a batch-level signal with no specific
// affected employees.
func (d *Detector) DetectContrast(ratings []models.RatingSample) []models.BiasPattern {
	if len(ratings) < d.cfg.ContrastMinBatchSize {
		return nil
	}

	scores := overallScores(ratings)

	swings := 0
	for i := 1; i < len(scores); i++ {
		diff := scores[i] - scores[i-1]
		if diff < 0 {
			diff = -diff
		}
		if diff >= d.cfg.ContrastSwingDelta {
			swings++
		}
	}

	swingRate := float64(swings) / float64(len(scores)-1)
	if swingRate <= d.cfg.ContrastSwingRate {
		return nil
	}

	return []models.BiasPattern{{
		Type:              models.BiasContrast,
		Severity:          models.SeverityLow,
		Confidence:        0.55,
		EvidenceCount:     swings,
		AffectedEmployees: nil,
		Description: fmt.Sprintf("%d of %d consecutive review pairs swing by %.1f or more points",
			swings, len(scores)-1, d.cfg.ContrastSwingDelta),
	}}
}
