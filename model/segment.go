package model

import (
	"time"

	"retailscope/cluster"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultClusterCount = 4
const DefaultClusterSeed = 42

// SegmentationResult is the output of one segmentation run: every profile
// carries exactly one segment label. Labels are stable only within a run.
type SegmentationResult struct {
	RunID         string    `json:"run_id"`
	K             int       `json:"k"`
	Seed          int64     `json:"seed"`
	ReferenceDate time.Time `json:"reference_date"`
	ComputedAt    time.Time `json:"computed_at"`

	Profiles []CustomerProfile `json:"profiles"`
	// SegmentByCustomer maps customer id to its cluster label.
	SegmentByCustomer map[string]int `json:"segment_by_customer"`
	// Centers are in standardized (recency, frequency, monetary) space.
	Centers [][]float64 `json:"centers"`
	WCSS    float64     `json:"wcss"`
}

// SegmentStat summarises one segment for reporting.
type SegmentStat struct {
	Segment      int       `json:"segment"`
	Size         int       `json:"size"`
	AvgRecency   float64   `json:"avg_recency_days"`
	AvgFrequency float64   `json:"avg_frequency"`
	AvgMonetary  float64   `json:"avg_monetary"`
	Center       []float64 `json:"center"`
}

// RunSegmentation derives RFM profiles from the transaction set and clusters
// them into k segments. Deterministic for a fixed dataset, k and seed.
func RunSegmentation(transactions []Transaction, k int, seed int64, refOverride time.Time) (*SegmentationResult, error) {
	if k <= 0 {
		k = DefaultClusterCount
	}

	referenceDate := ReferenceDate(transactions, refOverride)
	profiles := BuildCustomerProfiles(transactions, referenceDate)
	if len(profiles) == 0 {
		return nil, errors.Wrap(DataFormatError, "no identifiable customers in dataset")
	}
	if len(profiles) < k {
		return nil, errors.Wrapf(InsufficientDataError, "%d customers, k=%d", len(profiles), k)
	}

	result, err := cluster.KMeans(FeatureMatrix(profiles), k, seed)
	if err != nil {
		if err == cluster.ErrTooFewPoints {
			return nil, errors.Wrapf(InsufficientDataError, "%d customers, k=%d", len(profiles), k)
		}
		return nil, errors.Wrap(err, "kmeans failed")
	}

	segmentByCustomer := make(map[string]int, len(profiles))
	for i := range profiles {
		segmentByCustomer[profiles[i].CustomerID] = result.Assignments[i]
	}

	runID := uuid.New().String()
	log.WithFields(log.Fields{"run_id": runID, "k": k, "seed": seed,
		"customers": len(profiles), "iterations": result.Iterations,
		"wcss": result.WCSS}).Info("Segmentation run completed.")

	return &SegmentationResult{
		RunID:             runID,
		K:                 k,
		Seed:              seed,
		ReferenceDate:     referenceDate,
		ComputedAt:        time.Now().UTC(),
		Profiles:          profiles,
		SegmentByCustomer: segmentByCustomer,
		Centers:           result.Centers,
		WCSS:              result.WCSS,
	}, nil
}

// FeatureMatrix returns the standardized (recency, frequency, monetary)
// matrix for a profile slice, row order matching the slice.
func FeatureMatrix(profiles []CustomerProfile) [][]float64 {
	raw := make([][]float64, len(profiles))
	for i := range profiles {
		raw[i] = []float64{
			float64(profiles[i].RecencyDays),
			float64(profiles[i].Frequency),
			profiles[i].Monetary,
		}
	}
	scaled, _, _ := cluster.Standardize(raw)
	return scaled
}

// SegmentStats aggregates per-segment sizes and average raw RFM values.
func (r *SegmentationResult) SegmentStats() []SegmentStat {
	stats := make([]SegmentStat, r.K)
	for segment := range stats {
		stats[segment].Segment = segment
		if segment < len(r.Centers) {
			stats[segment].Center = r.Centers[segment]
		}
	}

	for i := range r.Profiles {
		profile := &r.Profiles[i]
		segment := r.SegmentByCustomer[profile.CustomerID]
		stats[segment].Size++
		stats[segment].AvgRecency += float64(profile.RecencyDays)
		stats[segment].AvgFrequency += float64(profile.Frequency)
		stats[segment].AvgMonetary += profile.Monetary
	}

	for segment := range stats {
		if stats[segment].Size == 0 {
			continue
		}
		size := float64(stats[segment].Size)
		stats[segment].AvgRecency /= size
		stats[segment].AvgFrequency /= size
		stats[segment].AvgMonetary /= size
	}
	return stats
}

// ElbowCurve computes WCSS for each k in [minK, maxK] on the same
// standardized features, for manual elbow inspection.
func ElbowCurve(transactions []Transaction, minK, maxK int, seed int64, refOverride time.Time) (map[int]float64, error) {
	referenceDate := ReferenceDate(transactions, refOverride)
	profiles := BuildCustomerProfiles(transactions, referenceDate)
	if len(profiles) < maxK {
		return nil, errors.Wrapf(InsufficientDataError, "%d customers, max_k=%d", len(profiles), maxK)
	}
	return cluster.SweepK(FeatureMatrix(profiles), minK, maxK, seed)
}
