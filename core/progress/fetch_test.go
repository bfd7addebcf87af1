package progress

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMarks(t *testing.T) {
	t.Run("bounded parallelism", func(t *testing.T) {
		src := &fakeSource{marks: map[string][]Mark{}, delay: 10 * time.Millisecond}
		students := make([]Student, 0, 12)
		for i := 0; i < 12; i++ {
			id := fmt.Sprintf("s%d", i)
			students = append(students, Student{ID: id})
			src.marks[id] = []Mark{mark(id, "Math", "", "", float64(i), 100)}
		}

		marks, failures := FetchMarks(context.Background(), src, students, FetchOptions{Parallel: 3})
		assert.Empty(t, failures)
		assert.Len(t, marks, 12)
		assert.Equal(t, 7.0, marks["s7"][0].Obtained)
		assert.LessOrEqual(t, int(src.maxInFlight), 3)
		assert.Greater(t, int(src.maxInFlight), 0)
	})

	t.Run("failures do not fail the batch", func(t *testing.T) {
		src := &fakeSource{
			marks: map[string][]Mark{"s1": {mark("s1", "Math", "", "", 80, 100)}},
			fail:  map[string]bool{"s2": true},
		}
		students := []Student{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}

		marks, failures := FetchMarks(context.Background(), src, students, FetchOptions{})
		require.Len(t, failures, 1)
		assert.Equal(t, "s2", failures[0].StudentID)
		assert.Error(t, failures[0].Err)

		require.Contains(t, marks, "s2")
		assert.NotNil(t, marks["s2"])
		assert.Empty(t, marks["s2"])
		assert.NotNil(t, marks["s3"]) // no marks at all
		assert.Empty(t, marks["s3"])
		assert.Len(t, marks["s1"], 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		src := &fakeSource{}

		marks, failures := FetchMarks(ctx, src, []Student{{ID: "s1"}, {ID: "s2"}}, FetchOptions{Parallel: 1})
		require.Len(t, failures, 2)
		assert.Equal(t, context.Canceled, failures[0].Err)
		assert.Equal(t, context.Canceled, failures[1].Err)
		assert.Equal(t, []Mark{}, marks["s1"])
		assert.Equal(t, int32(0), src.maxInFlight) // source never called
	})

	t.Run("empty cohort", func(t *testing.T) {
		marks, failures := FetchMarks(context.Background(), &fakeSource{}, nil, FetchOptions{})
		assert.Empty(t, marks)
		assert.Empty(t, failures)
	})
}
