package worker

import (
	zlog "github.com/rs/zerolog/log"
)

// A named step of a battery
type Operation struct {
	Name string
	Run  func() error
}

// Completed and aborted operations of the batteries run so far
type Results struct {
	CompleteCount int
	AbortCount    int
	Aborted       map[string]int // operation name -> number of failures
}

// Worker runs batteries of operations one after the other. A failing operation is logged and
// counted; it never stops the rest of the battery.
type Worker struct {
	name    string
	results Results
}

func NewWorker(name string) *Worker {
	return &Worker{
		name:    name,
		results: Results{Aborted: map[string]int{}},
	}
}

// Runs every operation of the battery, in order
func (w *Worker) Run(battery string, operations []Operation) {
	for _, op := range operations {
		zlog.Info().Str("target", w.name).Str("battery", battery).Str("operation", op.Name).Msg("Running")

		if err := op.Run(); err != nil {
			w.results.AbortCount++
			w.results.Aborted[op.Name]++
			zlog.Error().Err(err).Str("target", w.name).Str("battery", battery).Str("operation", op.Name).Msg("aborted")
			continue
		}

		w.results.CompleteCount++
		zlog.Debug().Str("target", w.name).Str("battery", battery).Str("operation", op.Name).Msg("completed")
	}
}

func (w *Worker) Results() Results {
	aborted := make(map[string]int, len(w.results.Aborted))
	for k, v := range w.results.Aborted {
		aborted[k] = v
	}
	return Results{
		CompleteCount: w.results.CompleteCount,
		AbortCount:    w.results.AbortCount,
		Aborted:       aborted,
	}
}
