package bias

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrplus/talent-hub/internal/models"
)

func sample(employeeID string, overall float64) models.RatingSample {
	return models.RatingSample{EmployeeID: employeeID, OverallScore: overall}
}

func datedSample(employeeID string, overall float64, reviewedAt time.Time) models.RatingSample {
	s := sample(employeeID, overall)
	s.ReviewDate = &reviewedAt

	return s
}

func TestRun_InsufficientSample(t *testing.T) {
	d := NewDetector(DefaultConfig())
	ratings := []models.RatingSample{sample("e1", 5), sample("e2", 5)}

	actions := []string{
		models.ActionAnalyzeManagerPatterns,
		models.ActionDetectRecencyBias,
		models.ActionDetectDistributionBias,
		models.ActionDetectHaloHorn,
	}

	for _, action := range actions {
		t.Run(action, func(t *testing.T) {
			patterns, ok := d.Run(action, ratings)

			assert.False(t, ok)
			assert.Empty(t, patterns)
		})
	}
}

func TestDetectDistribution_Leniency(t *testing.T) {
	d := NewDetector(DefaultConfig())

	// Mean 4.825: all four ratings are at or above 4, severity is high.
	ratings := []models.RatingSample{
		sample("e1", 5), sample("e2", 5), sample("e3", 4.5), sample("e4", 4.8),
	}

	patterns, ok := d.Run(models.ActionAnalyzeManagerPatterns, ratings)
	require.True(t, ok)

	var leniency []models.BiasPattern
	for _, p := range patterns {
		if p.Type == models.BiasLeniency {
			leniency = append(leniency, p)
		}
	}

	require.Len(t, leniency, 1)
	assert.Equal(t, models.SeverityHigh, leniency[0].Severity)
	assert.Len(t, leniency[0].AffectedEmployees, 4)
	assert.InDelta(t, 0.7875, leniency[0].Confidence, 1e-9)
}

func TestDetectDistribution_Severity(t *testing.T) {
	d := NewDetector(DefaultConfig())

	t.Run("fires below threshold with mirrored grading", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 2), sample("e2", 2.5), sample("e3", 2.2), sample("e4", 3),
		}

		patterns := d.DetectDistribution(ratings)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasSeverity, patterns[0].Type)
		assert.Equal(t, models.SeverityHigh, patterns[0].Severity) // mean 2.425 < 2.5
		assert.Len(t, patterns[0].AffectedEmployees, 4)            // all at or below 3
	})

	t.Run("confidence is clamped at 0.95", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 1), sample("e2", 1), sample("e3", 1),
		}

		patterns := d.DetectDistribution(ratings)
		require.Len(t, patterns, 1)
		assert.InDelta(t, 0.95, patterns[0].Confidence, 1e-9)
	})

	t.Run("never fires alongside leniency", func(t *testing.T) {
		// Any single mean can only trip one side of the thresholds.
		for _, overall := range []float64{1, 2.79, 2.8, 3.5, 4.2, 4.21, 5} {
			ratings := []models.RatingSample{
				sample("e1", overall), sample("e2", overall), sample("e3", overall),
			}

			patterns := d.DetectDistribution(ratings)
			assert.LessOrEqual(t, len(patterns), 1)
		}
	})
}

func TestDetectDistribution_NoPatternInsideBand(t *testing.T) {
	d := NewDetector(DefaultConfig())
	ratings := []models.RatingSample{
		sample("e1", 3.5), sample("e2", 4), sample("e3", 3.8),
	}

	assert.Empty(t, d.DetectDistribution(ratings))
}

func TestDetectCentralTendency(t *testing.T) {
	d := NewDetector(DefaultConfig())

	t.Run("fires on tight mid-range clustering", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 3), sample("e2", 3), sample("e3", 3.2),
			sample("e4", 3.1), sample("e5", 2.9), sample("e6", 3),
		}

		patterns := d.DetectCentralTendency(ratings)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasCentralTendency, patterns[0].Type)
		assert.Equal(t, models.SeverityHigh, patterns[0].Severity) // std well below 0.3
		assert.LessOrEqual(t, patterns[0].Confidence, 0.9)
		assert.Len(t, patterns[0].AffectedEmployees, 6)
	})

	t.Run("does not fire on spread scores", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 1), sample("e2", 5), sample("e3", 3), sample("e4", 2),
		}

		assert.Empty(t, d.DetectCentralTendency(ratings))
	})

	t.Run("does not fire when mid-range share is too low", func(t *testing.T) {
		// Tight spread but clustered above the mid range.
		ratings := []models.RatingSample{
			sample("e1", 4), sample("e2", 4.1), sample("e3", 4), sample("e4", 3.9),
		}

		assert.Empty(t, d.DetectCentralTendency(ratings))
	})
}

func TestDetectHaloHorn(t *testing.T) {
	d := NewDetector(DefaultConfig())

	dims := func(scores ...float64) []models.DimensionScore {
		out := make([]models.DimensionScore, len(scores))
		for i, s := range scores {
			out[i] = models.DimensionScore{Dimension: string(rune('a' + i)), Score: s}
		}

		return out
	}

	t.Run("per rating, not per batch", func(t *testing.T) {
		ratings := []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 3, Scores: dims(1, 3, 5)},
			{EmployeeID: "e2", OverallScore: 3, Scores: dims(2, 4)},
			{EmployeeID: "e3", OverallScore: 5, Scores: dims(5, 5, 4.9)},
			{EmployeeID: "e4", OverallScore: 3},
			{EmployeeID: "e5", OverallScore: 3, Scores: dims(2, 3, 4)},
		}

		patterns := d.DetectHaloHorn(ratings)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasHalo, patterns[0].Type)
		require.Len(t, patterns[0].AffectedEmployees, 1)
		assert.Equal(t, "e3", patterns[0].AffectedEmployees[0].EmployeeID)
		// std ~0.047 < 0.15
		assert.Equal(t, models.SeverityMedium, patterns[0].Severity)
		assert.LessOrEqual(t, patterns[0].Confidence, 0.85)
	})

	t.Run("horn mirrors halo at the low end", func(t *testing.T) {
		ratings := []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 2, Scores: dims(1.5, 1.5, 1.6)},
			{EmployeeID: "e2", OverallScore: 3},
			{EmployeeID: "e3", OverallScore: 3},
		}

		patterns := d.DetectHaloHorn(ratings)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasHorn, patterns[0].Type)
		assert.Equal(t, "e1", patterns[0].AffectedEmployees[0].EmployeeID)
	})

	t.Run("two dimensions are never enough to fire", func(t *testing.T) {
		ratings := []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 5, Scores: dims(5, 5)},
			{EmployeeID: "e2", OverallScore: 3},
			{EmployeeID: "e3", OverallScore: 3},
		}

		assert.Empty(t, d.DetectHaloHorn(ratings))
	})

	t.Run("uniform mid-scale scores fire nothing", func(t *testing.T) {
		ratings := []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 3, Scores: dims(3, 3, 3.1)},
			{EmployeeID: "e2", OverallScore: 3},
			{EmployeeID: "e3", OverallScore: 3},
		}

		assert.Empty(t, d.DetectHaloHorn(ratings))
	})
}

func TestDetectRecency(t *testing.T) {
	d := NewDetector(DefaultConfig())
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("fires for a large batch completed rapidly", func(t *testing.T) {
		var ratings []models.RatingSample
		for i := 0; i < 6; i++ {
			ratings = append(ratings, datedSample(
				string(rune('a'+i)), 3.5, base.Add(time.Duration(i)*time.Hour)))
		}

		patterns := d.DetectRecency(ratings)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasRecency, patterns[0].Type)
		assert.Equal(t, models.SeverityLow, patterns[0].Severity)
		assert.InDelta(t, 0.6, patterns[0].Confidence, 1e-9)
		assert.Len(t, patterns[0].AffectedEmployees, 6)
		assert.Equal(t, "review completed rapidly", patterns[0].AffectedEmployees[0].Impact)
	})

	t.Run("does not fire for batches of five or fewer", func(t *testing.T) {
		var ratings []models.RatingSample
		for i := 0; i < 5; i++ {
			ratings = append(ratings, datedSample(
				string(rune('a'+i)), 3.5, base.Add(time.Duration(i)*time.Hour)))
		}

		assert.Empty(t, d.DetectRecency(ratings))
	})

	t.Run("does not fire when reviews are spread out", func(t *testing.T) {
		var ratings []models.RatingSample
		for i := 0; i < 6; i++ {
			ratings = append(ratings, datedSample(
				string(rune('a'+i)), 3.5, base.AddDate(0, 0, i*3)))
		}

		assert.Empty(t, d.DetectRecency(ratings))
	})

	t.Run("requires at least two dated ratings", func(t *testing.T) {
		ratings := []models.RatingSample{
			datedSample("e1", 3.5, base),
			sample("e2", 3.5), sample("e3", 3.5),
			sample("e4", 3.5), sample("e5", 3.5), sample("e6", 3.5),
		}

		assert.Empty(t, d.DetectRecency(ratings))
	})
}

func TestDetectContrast(t *testing.T) {
	d := NewDetector(DefaultConfig())

	t.Run("fires when large swings dominate", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 1), sample("e2", 3), sample("e3", 1),
			sample("e4", 4), sample("e5", 1),
		}

		patterns := d.DetectContrast(ratings)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasContrast, patterns[0].Type)
		assert.Equal(t, models.SeverityLow, patterns[0].Severity)
		assert.InDelta(t, 0.55, patterns[0].Confidence, 1e-9)
		assert.Empty(t, patterns[0].AffectedEmployees)
		assert.Equal(t, 4, patterns[0].EvidenceCount)
	})

	t.Run("does not fire on stable sequences", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 3), sample("e2", 3.2), sample("e3", 3.1), sample("e4", 3),
		}

		assert.Empty(t, d.DetectContrast(ratings))
	})

	t.Run("requires at least four ratings", func(t *testing.T) {
		ratings := []models.RatingSample{
			sample("e1", 1), sample("e2", 5), sample("e3", 1),
		}

		assert.Empty(t, d.DetectContrast(ratings))
	})
}

func TestRun_ActionDispatch(t *testing.T) {
	d := NewDetector(DefaultConfig())
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// A batch engineered to trigger leniency and recency simultaneously.
	var ratings []models.RatingSample
	for i := 0; i < 6; i++ {
		ratings = append(ratings, datedSample(
			string(rune('a'+i)), 4.8, base.Add(time.Duration(i)*time.Minute)))
	}

	t.Run("detect_recency_bias runs only the recency detector", func(t *testing.T) {
		patterns, ok := d.Run(models.ActionDetectRecencyBias, ratings)
		require.True(t, ok)
		require.Len(t, patterns, 1)
		assert.Equal(t, models.BiasRecency, patterns[0].Type)
	})

	t.Run("detect_distribution_bias skips recency", func(t *testing.T) {
		patterns, ok := d.Run(models.ActionDetectDistributionBias, ratings)
		require.True(t, ok)

		for _, p := range patterns {
			assert.NotEqual(t, models.BiasRecency, p.Type)
			assert.NotEqual(t, models.BiasHalo, p.Type)
		}
	})

	t.Run("analyze_manager_patterns unions all detectors", func(t *testing.T) {
		patterns, ok := d.Run(models.ActionAnalyzeManagerPatterns, ratings)
		require.True(t, ok)

		types := map[models.BiasType]bool{}
		for _, p := range patterns {
			types[p.Type] = true
		}

		assert.True(t, types[models.BiasLeniency])
		assert.True(t, types[models.BiasRecency])
	})
}

func TestConfidenceBounds(t *testing.T) {
	d := NewDetector(DefaultConfig())

	// Sweep a range of batches and assert every confidence stays in [0, 0.95].
	batches := [][]models.RatingSample{
		{sample("a", 1), sample("b", 1), sample("c", 1)},
		{sample("a", 5), sample("b", 5), sample("c", 5)},
		{sample("a", 3), sample("b", 3), sample("c", 3), sample("d", 3)},
		{
			{EmployeeID: "a", OverallScore: 5, Scores: []models.DimensionScore{
				{Dimension: "x", Score: 5}, {Dimension: "y", Score: 5}, {Dimension: "z", Score: 5},
			}},
			sample("b", 1), sample("c", 5), sample("d", 1), sample("e", 5),
		},
	}

	for _, ratings := range batches {
		patterns, ok := d.Run(models.ActionAnalyzeManagerPatterns, ratings)
		require.True(t, ok)

		for _, p := range patterns {
			assert.GreaterOrEqual(t, p.Confidence, 0.0)
			assert.LessOrEqual(t, p.Confidence, 0.95)
		}
	}
}
