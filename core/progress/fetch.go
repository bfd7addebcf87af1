package progress

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelFetches bounds FetchMarks when FetchOptions.Parallel is not set.
const DefaultParallelFetches = 8

type FetchOptions struct {
	// Parallel is the maximum number of in-flight requests.
	Parallel int
}

// FetchFailure records a student whose marks could not be fetched.
type FetchFailure struct {
	StudentID string
	Err       error
}

// FetchMarks fetches the marks of every student in parallel, one request per student.
//
// A failing request does not fail the batch: that student gets an empty (non-nil) marks list
// and a FetchFailure is reported. Results are keyed by student id; failures follow cohort order.
func FetchMarks(ctx context.Context, src MarkSource, students []Student, opts FetchOptions) (map[string][]Mark, []FetchFailure) {
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = DefaultParallelFetches
	}

	results := make([][]Mark, len(students))
	errs := make([]error, len(students))

	// every task owns its own slot in results & errs
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, s := range students {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = src.StudentMarks(ctx, s.ID)
			return nil
		})
	}
	_ = g.Wait() // tasks never fail, errors are collected per student

	marksByStudent := make(map[string][]Mark, len(students))
	var failures []FetchFailure
	for i, s := range students {
		if errs[i] != nil {
			failures = append(failures, FetchFailure{StudentID: s.ID, Err: errs[i]})
			marksByStudent[s.ID] = []Mark{}
			continue
		}
		marks := results[i]
		if marks == nil {
			marks = []Mark{}
		}
		if _, dup := marksByStudent[s.ID]; !dup {
			marksByStudent[s.ID] = marks
		}
	}
	return marksByStudent, failures
}
