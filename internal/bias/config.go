// Package bias implements pure statistical detectors for known rater-bias
// archetypes over a manager's rating batch. Detectors are deterministic and
// operate only on the supplied batch; persistence lives elsewhere.
package bias

// Config holds every detector threshold and weight in one place so individual
// detectors can be tuned and unit-tested without touching control flow.
// Treat instances as immutable after construction.
type Config struct {
	// MinimumSampleSize guards every detector: batches smaller than this
	// produce no findings at all.
	MinimumSampleSize int

	// Leniency fires when the batch mean overall score exceeds MeanThreshold.
	LeniencyMeanThreshold   float64
	LeniencyHighMean        float64
	LeniencyMediumMean      float64
	LeniencyAffectedMinimum float64 // ratings at or above count as affected

	// Severity mirrors leniency at the low end of the scale.
	SeverityMeanThreshold   float64
	SeverityHighMean        float64
	SeverityMediumMean      float64
	SeverityAffectedMaximum float64 // ratings at or below count as affected

	// Central tendency fires when scores cluster tightly around the midpoint.
	CentralStdDevThreshold float64
	CentralHighStdDev      float64
	CentralMidRangeLow     float64
	CentralMidRangeHigh    float64
	CentralMidRangeShare   float64

	// Halo/horn is evaluated per rating across its dimension scores.
	HaloHornStdDevThreshold float64
	HaloHornMediumStdDev    float64
	HaloHornMinDimensions   int
	HaloMeanMinimum         float64
	HornMeanMaximum         float64

	// Recency fires when a large batch was completed within a short span.
	RecencySpanDays     float64
	RecencyMinBatchSize int // batch must be strictly larger than this

	// Contrast fires on frequent large swings between consecutive reviews.
	ContrastMinBatchSize int
	ContrastSwingDelta   float64
	ContrastSwingRate    float64
}

// DefaultConfig returns the production detector thresholds.
func DefaultConfig() Config {
	return Config{
		MinimumSampleSize: 3,

		LeniencyMeanThreshold:   4.2,
		LeniencyHighMean:        4.5,
		LeniencyMediumMean:      4.3,
		LeniencyAffectedMinimum: 4.0,

		SeverityMeanThreshold:   2.8,
		SeverityHighMean:        2.5,
		SeverityMediumMean:      2.7,
		SeverityAffectedMaximum: 3.0,

		CentralStdDevThreshold: 0.5,
		CentralHighStdDev:      0.3,
		CentralMidRangeLow:     2.8,
		CentralMidRangeHigh:    3.5,
		CentralMidRangeShare:   0.7,

		HaloHornStdDevThreshold: 0.3,
		HaloHornMediumStdDev:    0.15,
		HaloHornMinDimensions:   3,
		HaloMeanMinimum:         4.0,
		HornMeanMaximum:         2.0,

		RecencySpanDays:     2,
		RecencyMinBatchSize: 5,

		ContrastMinBatchSize: 4,
		ContrastSwingDelta:   1.5,
		ContrastSwingRate:    0.5,
	}
}
