// Copyright 2024 Fantom Foundation
// This file is part of Fiber, an exact test toolkit for contingency tables
//
// Fiber is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Fiber is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Fiber. If not, see <http://www.gnu.org/licenses/>.

// Package analytics provides streaming summaries of sampled statistics.
package analytics

import (
	"encoding/json"
	"math"
)

// IncrementalStats keeps count, extrema, a compensated sum and the first
// four central moments of a stream without storing its values.
type IncrementalStats struct {
	count uint64
	min   float64
	max   float64

	ksum float64
	c    float64

	m1 float64
	m2 float64
	m3 float64
	m4 float64
}

func NewIncrementalStats() *IncrementalStats {
	return &IncrementalStats{}
}

// Update adds x to the stream.
func (s *IncrementalStats) Update(x float64) {
	prev, n := float64(s.count), float64(s.count+1)

	delta := x - s.m1
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term := delta * deltaN * prev

	s.m1 += deltaN
	s.m4 += term*deltaN2*(n*n-3*n+3) + 6*deltaN2*s.m2 - 4*deltaN*s.m3
	s.m3 += term*deltaN*(n-2) - 3*deltaN*s.m2
	s.m2 += term

	// kahan
	y := x - s.c
	z := s.ksum + y
	s.c = (z - s.ksum) - y
	s.ksum = z

	if s.count == 0 {
		s.min, s.max = x, x
	} else {
		s.min = math.Min(s.min, x)
		s.max = math.Max(s.max, x)
	}
	s.count++
}

// Merge folds other into s as if its values had been added to s.
func (s *IncrementalStats) Merge(other *IncrementalStats) {
	if other.count == 0 {
		return
	}
	if s.count == 0 {
		*s = *other
		return
	}
	na, nb := float64(s.count), float64(other.count)
	n := na + nb
	delta := other.m1 - s.m1
	delta2 := delta * delta
	delta3 := delta2 * delta
	delta4 := delta2 * delta2

	m1 := s.m1 + delta*nb/n
	m2 := s.m2 + other.m2 + delta2*na*nb/n
	m3 := s.m3 + other.m3 + delta3*na*nb*(na-nb)/(n*n) +
		3*delta*(na*other.m2-nb*s.m2)/n
	m4 := s.m4 + other.m4 + delta4*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*delta2*(na*na*other.m2+nb*nb*s.m2)/(n*n) +
		4*delta*(na*other.m3-nb*s.m3)/n

	s.m1, s.m2, s.m3, s.m4 = m1, m2, m3, m4
	s.ksum += other.ksum
	s.c += other.c
	s.min = math.Min(s.min, other.min)
	s.max = math.Max(s.max, other.max)
	s.count += other.count
}

func (s *IncrementalStats) GetCount() uint64 {
	return s.count
}

func (s *IncrementalStats) GetSum() float64 {
	return s.ksum
}

func (s *IncrementalStats) GetMean() float64 {
	return s.ifEmpty(s.m1)
}

// GetVariance returns the population variance.
func (s *IncrementalStats) GetVariance() float64 {
	return s.ifEmpty(s.m2 / float64(s.count))
}

func (s *IncrementalStats) GetStandardDeviation() float64 {
	return math.Sqrt(s.GetVariance())
}

func (s *IncrementalStats) GetSkewness() float64 {
	return s.ifEmpty(math.Sqrt(float64(s.count)) * s.m3 / math.Pow(s.m2, 1.5))
}

func (s *IncrementalStats) GetKurtosis() float64 {
	return s.ifEmpty(float64(s.count)*s.m4/(s.m2*s.m2) - 3.0)
}

func (s *IncrementalStats) GetMin() float64 {
	return s.ifEmpty(s.min)
}

func (s *IncrementalStats) GetMax() float64 {
	return s.ifEmpty(s.max)
}

func (s *IncrementalStats) ifEmpty(v float64) float64 {
	if s.count == 0 {
		return math.NaN()
	}
	return v
}

type statsJSON struct {
	Count uint64  `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (s *IncrementalStats) MarshalJSON() ([]byte, error) {
	if s.count == 0 {
		return json.Marshal(statsJSON{})
	}
	return json.Marshal(statsJSON{
		Count: s.count,
		Mean:  s.GetMean(),
		Std:   s.GetStandardDeviation(),
		Min:   s.min,
		Max:   s.max,
	})
}

func (s *IncrementalStats) String() string {
	str, _ := json.Marshal(s)
	return string(str)
}
