package worker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunContinuesAfterFailures(t *testing.T) {
	ran := []string{}
	op := func(name string, err error) Operation {
		return Operation{Name: name, Run: func() error {
			ran = append(ran, name)
			return err
		}}
	}

	w := NewWorker("test")
	w.Run("batch", []Operation{
		op("first", nil),
		op("second", errors.New("boom")),
		op("third", nil),
	})
	w.Run("single", []Operation{op("second", errors.New("boom again"))})

	assert.Equal(t, []string{"first", "second", "third", "second"}, ran)

	results := w.Results()
	assert.Equal(t, 2, results.CompleteCount)
	assert.Equal(t, 2, results.AbortCount)
	assert.Equal(t, map[string]int{"second": 2}, results.Aborted)
}
