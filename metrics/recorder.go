// Package metrics keeps the response times of named operations and reduces them to summary
// statistics.
package metrics

import (
	"crudbench/util"
	"time"
)

// Suffix appended to an operation name when the operation failed
const ErrorSuffix = "_error"

// Summary statistics of one operation, in seconds
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// Operation name -> Stats
type Summary map[string]Stats

// Recorder is the ledger of response times, keyed by operation name. Samples are kept in the
// order they were recorded. It is owned by a single goroutine and is not safe for concurrent use.
type Recorder struct {
	samples map[string][]time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{samples: map[string][]time.Duration{}}
}

// Appends a sample to the operation's ledger entry
func (r *Recorder) Record(operation string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.samples[operation] = append(r.samples[operation], d)
}

// Returns a copy of the samples of an operation (nil if there are none)
func (r *Recorder) Samples(operation string) []time.Duration {
	samples, ok := r.samples[operation]
	if !ok {
		return nil
	}
	return append([]time.Duration(nil), samples...)
}

// Computes the statistics of every operation with at least one sample
func (r *Recorder) Summarize() Summary {
	summary := Summary{}

	for operation, samples := range r.samples {
		if len(samples) == 0 {
			continue
		}

		secs := make([]float64, len(samples))
		for i, d := range samples {
			secs[i] = d.Seconds()
		}

		min, max := util.MinMax(secs)
		summary[operation] = Stats{
			Min:    min,
			Max:    max,
			Avg:    util.Mean(secs),
			Median: util.Median(secs),
			Count:  len(secs),
		}
	}

	return summary
}

// Empties the ledger
func (r *Recorder) Reset() {
	r.samples = map[string][]time.Duration{}
}
