package metrics

import "math"

// RunningStats accumulates count, mean, variance, min and max in a single
// pass using Welford's online algorithm. The result is independent of the
// order values are added in.
type RunningStats struct {
	count int64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

// Add folds one value into the accumulator.
func (s *RunningStats) Add(value float64) {
	if s.count == 0 {
		s.min = value
		s.max = value
	} else {
		s.min = math.Min(s.min, value)
		s.max = math.Max(s.max, value)
	}

	s.count++
	delta := value - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (value - s.mean)
}

// Count returns the number of values added.
func (s *RunningStats) Count() int64 { return s.count }

// Mean returns the running mean, 0 for an empty accumulator.
func (s *RunningStats) Mean() float64 { return s.mean }

// Min returns the smallest value seen, 0 for an empty accumulator.
func (s *RunningStats) Min() float64 { return s.min }

// Max returns the largest value seen, 0 for an empty accumulator.
func (s *RunningStats) Max() float64 { return s.max }

// StdDev returns the sample standard deviation, 0 when fewer than two
// values have been added.
func (s *RunningStats) StdDev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count-1))
}
