// Package report prints benchmark statistics for humans.
package report

import (
	"crudbench/metrics"
	"crudbench/results"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// Operations compared by default, the ones every engine runs in each iteration
var DefaultOperations = []string{
	"insert_batch",
	"insert_batch_simple",
	"fetch_simple",
	"fetch_with_relations",
	"delete_all_with_relations",
}

// Prints the statistics of one data size
func PrintSummary(w io.Writer, size int, stats metrics.Summary) {
	fmt.Fprintf(w, "\nPerformance Test Summary (data size %d):\n", size)
	fmt.Fprintln(w, strings.Repeat("-", 80))

	operations := make([]string, 0, len(stats))
	for op := range stats {
		operations = append(operations, op)
	}
	sort.Strings(operations)

	for _, op := range operations {
		s := stats[op]
		fmt.Fprintf(w, "\nOperation: %s\n", op)
		fmt.Fprintf(w, "  Average time: %.4f seconds\n", s.Avg)
		fmt.Fprintf(w, "  Median time: %.4f seconds\n", s.Median)
		fmt.Fprintf(w, "  Min time: %.4f seconds\n", s.Min)
		fmt.Fprintf(w, "  Max time: %.4f seconds\n", s.Max)
		fmt.Fprintf(w, "  Number of executions: %d\n", s.Count)
	}
}

// Compares the average times of two result files, per data size and operation. Sizes are matched
// by value; a size or operation missing from either side is skipped.
func Compare(w io.Writer, labelA string, a []results.Record, labelB string, b []results.Record, operations []string) error {
	bySize := map[int]results.Record{}
	for _, r := range b {
		bySize[r.DataSize] = r
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "operation\tdata size\t%s avg (s)\t%s avg (s)\tfaster\n", labelA, labelB)

	for _, op := range operations {
		for _, ra := range a {
			rb, ok := bySize[ra.DataSize]
			if !ok {
				continue
			}
			sa, okA := ra.PerformanceStats[op]
			sb, okB := rb.PerformanceStats[op]
			if !okA || !okB {
				continue
			}

			faster := labelA
			if sb.Avg < sa.Avg {
				faster = labelB
			}
			fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%s\n", op, ra.DataSize, sa.Avg, sb.Avg, faster)
		}
	}

	return tw.Flush()
}
