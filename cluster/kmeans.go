// Package cluster implements seeded k-means over small dense feature
// matrices. Initialization and convergence are pinned explicitly so that a
// fixed (input, k, seed) triple always produces the same assignment.
package cluster

import (
	"errors"
	"math"
	"math/rand"
)

const (
	// MaxIterations caps Lloyd relocation rounds.
	MaxIterations = 100
	// ConvergenceTolerance is the max center movement treated as converged.
	ConvergenceTolerance = 1e-6
)

var ErrTooFewPoints = errors.New("fewer points than requested clusters")

// Result of a single k-means run in standardized feature space.
type Result struct {
	// Assignments[i] is the cluster label of points[i].
	Assignments []int
	Centers     [][]float64
	// WCSS is the within-cluster sum of squared distances to centers.
	WCSS       float64
	Iterations int
}

// Standardize z-scores each dimension independently. A dimension with zero
// variance maps to 0 for every point. Returns the scaled copy plus the means
// and standard deviations used.
func Standardize(points [][]float64) (scaled [][]float64, means, stddevs []float64) {
	if len(points) == 0 {
		return [][]float64{}, []float64{}, []float64{}
	}

	dimension := len(points[0])
	means = make([]float64, dimension)
	stddevs = make([]float64, dimension)

	for _, p := range points {
		for d := 0; d < dimension; d++ {
			means[d] += p[d]
		}
	}
	for d := 0; d < dimension; d++ {
		means[d] /= float64(len(points))
	}

	for _, p := range points {
		for d := 0; d < dimension; d++ {
			diff := p[d] - means[d]
			stddevs[d] += diff * diff
		}
	}
	for d := 0; d < dimension; d++ {
		stddevs[d] = math.Sqrt(stddevs[d] / float64(len(points)))
	}

	scaled = make([][]float64, len(points))
	for i, p := range points {
		row := make([]float64, dimension)
		for d := 0; d < dimension; d++ {
			if stddevs[d] > 0 {
				row[d] = (p[d] - means[d]) / stddevs[d]
			}
		}
		scaled[i] = row
	}
	return scaled, means, stddevs
}

// KMeans partitions points into k clusters using k-means++ seeding from the
// given seed and Lloyd relocation. Points must share one dimension.
func KMeans(points [][]float64, k int, seed int64) (*Result, error) {
	if k <= 0 {
		return nil, errors.New("cluster count must be positive")
	}
	if len(points) < k {
		return nil, ErrTooFewPoints
	}

	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(points, k, rng)
	assignments := make([]int, len(points))

	iterations := 0
	for ; iterations < MaxIterations; iterations++ {
		for i, p := range points {
			assignments[i] = nearestCenter(p, centers)
		}

		moved := relocateCenters(points, assignments, centers, rng)
		if moved < ConvergenceTolerance {
			iterations++
			break
		}
	}

	// Final assignment against the settled centers.
	wcss := 0.0
	for i, p := range points {
		assignments[i] = nearestCenter(p, centers)
		wcss += squaredDistance(p, centers[assignments[i]])
	}

	return &Result{
		Assignments: assignments,
		Centers:     centers,
		WCSS:        wcss,
		Iterations:  iterations,
	}, nil
}

// SweepK runs KMeans for every k in [minK, maxK] and reports WCSS per k, for
// an elbow heuristic. k selection stays with the caller.
func SweepK(points [][]float64, minK, maxK int, seed int64) (map[int]float64, error) {
	if minK < 1 || maxK < minK {
		return nil, errors.New("invalid k range")
	}

	wcssByK := make(map[int]float64, maxK-minK+1)
	for k := minK; k <= maxK; k++ {
		result, err := KMeans(points, k, seed)
		if err != nil {
			return nil, err
		}
		wcssByK[k] = result.WCSS
	}
	return wcssByK, nil
}

// seedCenters picks k initial centers with the k-means++ weighting: the first
// uniformly, the rest proportional to squared distance from the nearest
// chosen center.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, copyPoint(points[rng.Intn(len(points))]))

	distances := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			distances[i] = squaredDistance(p, centers[0])
			for _, c := range centers[1:] {
				if d := squaredDistance(p, c); d < distances[i] {
					distances[i] = d
				}
			}
			total += distances[i]
		}

		if total == 0 {
			// All remaining points coincide with a chosen center.
			centers = append(centers, copyPoint(points[rng.Intn(len(points))]))
			continue
		}

		target := rng.Float64() * total
		cumulative := 0.0
		chosen := len(points) - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centers = append(centers, copyPoint(points[chosen]))
	}
	return centers
}

// relocateCenters moves each center to the mean of its assigned points and
// returns the largest squared movement. Empty clusters are re-seeded on a
// random point to keep cardinality at k.
func relocateCenters(points [][]float64, assignments []int, centers [][]float64, rng *rand.Rand) float64 {
	dimension := len(points[0])
	sums := make([][]float64, len(centers))
	counts := make([]int, len(centers))
	for i := range sums {
		sums[i] = make([]float64, dimension)
	}

	for i, p := range points {
		label := assignments[i]
		counts[label]++
		for d := 0; d < dimension; d++ {
			sums[label][d] += p[d]
		}
	}

	maxMovement := 0.0
	for label := range centers {
		if counts[label] == 0 {
			centers[label] = copyPoint(points[rng.Intn(len(points))])
			maxMovement = math.Inf(1)
			continue
		}

		updated := make([]float64, dimension)
		for d := 0; d < dimension; d++ {
			updated[d] = sums[label][d] / float64(counts[label])
		}
		if movement := squaredDistance(centers[label], updated); movement > maxMovement {
			maxMovement = movement
		}
		centers[label] = updated
	}
	return maxMovement
}

func nearestCenter(point []float64, centers [][]float64) int {
	best := 0
	bestDistance := squaredDistance(point, centers[0])
	for label := 1; label < len(centers); label++ {
		if d := squaredDistance(point, centers[label]); d < bestDistance {
			best = label
			bestDistance = d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

func copyPoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
