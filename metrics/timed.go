package metrics

import "time"

// Time runs op and records how long it took under name, or under name+ErrorSuffix when op
// fails. The result and the error are returned exactly as op produced them.
func Time[T any](r *Recorder, name string, op func() (T, error)) (T, error) {
	start := time.Now()
	result, err := op()
	elapsed := time.Since(start)

	if err != nil {
		r.Record(name+ErrorSuffix, elapsed)
		return result, err
	}

	r.Record(name, elapsed)
	return result, nil
}

// TimeErr is Time for operations that only return an error.
func TimeErr(r *Recorder, name string, op func() error) error {
	_, err := Time(r, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
