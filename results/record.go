// Package results persists one record per data size into a JSON array file.
package results

import (
	"crudbench/metrics"
	"encoding/json"
	"time"
)

// Summary of all iterations of one data size. In the file DataSize, Iterations and Timestamp are
// nested under a "test_info" object next to "performance_stats" (see wireRecord).
type Record struct {
	DataSize         int
	Iterations       int
	Timestamp        time.Time
	PerformanceStats metrics.Summary
}

type testInfo struct {
	DataSize   int    `json:"data_size"`
	Iterations int    `json:"iterations"`
	Timestamp  string `json:"timestamp"`
}

type wireRecord struct {
	TestInfo         testInfo        `json:"test_info"`
	PerformanceStats metrics.Summary `json:"performance_stats"`
}

func NewRecord(dataSize int, iterations int, timestamp time.Time, stats metrics.Summary) Record {
	if stats == nil {
		stats = metrics.Summary{}
	}
	return Record{
		DataSize:         dataSize,
		Iterations:       iterations,
		Timestamp:        timestamp,
		PerformanceStats: stats,
	}
}

func (r Record) MarshalJSON() ([]byte, error) {
	stats := r.PerformanceStats
	if stats == nil {
		stats = metrics.Summary{}
	}
	return json.Marshal(wireRecord{
		TestInfo: testInfo{
			DataSize:   r.DataSize,
			Iterations: r.Iterations,
			Timestamp:  r.Timestamp.Format(time.RFC3339Nano),
		},
		PerformanceStats: stats,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	r.DataSize = w.TestInfo.DataSize
	r.Iterations = w.TestInfo.Iterations
	r.PerformanceStats = w.PerformanceStats
	r.Timestamp = time.Time{}
	if w.TestInfo.Timestamp != "" {
		ts, err := parseTimestamp(w.TestInfo.Timestamp)
		if err != nil {
			return err
		}
		r.Timestamp = ts
	}

	return nil
}

// Accepts RFC 3339 and the zone-less ISO 8601 form older result files were written with
func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
}
