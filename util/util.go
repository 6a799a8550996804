package util

import (
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Returns the current unix time in seconds
func EpochSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(1e9)
}

// Computes the arithmetic mean of an array
func Mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}

	total := 0.
	for _, x := range a {
		total += x
	}

	return total / float64(len(a))
}

// Computes the median of an array, averaging the two middle values when the length is even.
// The input is not modified.
func Median(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}

	sorted := make([]float64, len(a))
	copy(sorted, a)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Returns the smallest and largest values of a non-empty array
func MinMax(a []float64) (float64, float64) {
	min, max := a[0], a[0]
	for _, x := range a[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Returns a random string of ascii letters with 'length' bytes
func RandomString(r *rand.Rand, length int) string {
	var s = make([]byte, length)
	for i := 0; i < length; i++ {
		s[i] = letters[r.Intn(len(letters))]
	}
	return string(s)
}

// Returns a random integer in [min, max]
func RandomBetween(r *rand.Rand, min int, max int) int {
	return min + r.Intn(max-min+1)
}

// Returns 'count' random strings (each between minLen and maxLen letters) joined by sep
func RandomWords(r *rand.Rand, count int, minLen int, maxLen int, sep string) string {
	words := make([]string, count)
	for i := range words {
		words[i] = RandomString(r, RandomBetween(r, minLen, maxLen))
	}
	return strings.Join(words, sep)
}

// Returns a random element of the array
func Choice[T any](r *rand.Rand, a []T) T {
	return a[r.Intn(len(a))]
}
