package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	cases := []struct {
		samples []time.Duration
		min     float64
		max     float64
		avg     float64
		median  float64
	}{
		{[]time.Duration{time.Second}, 1, 1, 1, 1},
		{[]time.Duration{3 * time.Second, time.Second, 2 * time.Second}, 1, 3, 2, 2},
		{[]time.Duration{4 * time.Second, time.Second, 3 * time.Second, 2 * time.Second}, 1, 4, 2.5, 2.5},
		{[]time.Duration{10 * time.Millisecond, 30 * time.Millisecond}, 0.01, 0.03, 0.02, 0.02},
		{[]time.Duration{0, 0, 5 * time.Second, 0, 0}, 0, 5, 1, 0},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			r := NewRecorder()
			for _, d := range c.samples {
				r.Record("op", d)
			}

			summary := r.Summarize()
			require.Len(t, summary, 1)
			stats := summary["op"]
			assert.Equal(t, len(c.samples), stats.Count)
			assert.InDelta(t, c.min, stats.Min, 1e-9)
			assert.InDelta(t, c.max, stats.Max, 1e-9)
			assert.InDelta(t, c.avg, stats.Avg, 1e-9)
			assert.InDelta(t, c.median, stats.Median, 1e-9)
		})
	}
}

func TestRecordKeepsOrderAndDuplicates(t *testing.T) {
	r := NewRecorder()
	r.Record("op", 2*time.Millisecond)
	r.Record("op", time.Millisecond)
	r.Record("op", 2*time.Millisecond)
	r.Record("other", time.Second)

	assert.Equal(t, []time.Duration{2 * time.Millisecond, time.Millisecond, 2 * time.Millisecond}, r.Samples("op"))

	summary := r.Summarize()
	assert.Equal(t, 3, summary["op"].Count)
	assert.Equal(t, 1, summary["other"].Count)
}

func TestSamplesReturnsACopy(t *testing.T) {
	r := NewRecorder()
	r.Record("op", time.Millisecond)

	samples := r.Samples("op")
	samples[0] = time.Hour
	_ = append(samples[:0], time.Minute, time.Minute)

	assert.Equal(t, []time.Duration{time.Millisecond}, r.Samples("op"))
	assert.InDelta(t, 0.001, r.Summarize()["op"].Max, 1e-9)
}

func TestRecordClampsNegativeDurations(t *testing.T) {
	r := NewRecorder()
	r.Record("op", -time.Second)

	assert.Equal(t, []time.Duration{0}, r.Samples("op"))
	assert.Equal(t, 0., r.Summarize()["op"].Min)
}

func TestReset(t *testing.T) {
	r := NewRecorder()
	r.Reset()
	assert.Empty(t, r.Summarize())

	r.Record("a", time.Millisecond)
	r.Record("b", time.Millisecond)
	r.Reset()
	r.Reset()

	assert.Empty(t, r.Summarize())
	assert.Nil(t, r.Samples("a"))
}

func TestTimeSuccess(t *testing.T) {
	r := NewRecorder()

	result, err := Time(r, "fetch", func() ([]string, error) {
		time.Sleep(2 * time.Millisecond)
		return []string{"x", "y"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, result)

	summary := r.Summarize()
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary["fetch"].Count)
	assert.GreaterOrEqual(t, summary["fetch"].Min, 0.002)
}

func TestTimeFailure(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("boom")

	_, err := Time(r, "insert", func() (int, error) {
		return 0, boom
	})

	assert.True(t, err == boom, "the original error must be returned unchanged")

	summary := r.Summarize()
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary["insert_error"].Count)
	_, ok := summary["insert"]
	assert.False(t, ok)
}

func TestTimeErr(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("boom")

	assert.NoError(t, TimeErr(r, "delete", func() error { return nil }))
	err := TimeErr(r, "delete", func() error { return boom })
	assert.Same(t, boom, err)

	summary := r.Summarize()
	assert.Equal(t, 1, summary["delete"].Count)
	assert.Equal(t, 1, summary["delete_error"].Count)
}
