package progress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// fakeSource is an in-package Source for engine tests.
type fakeSource struct {
	students []Student
	marks    map[string][]Mark
	exams    map[string][]ClassExam
	fail     map[string]bool
	delay    time.Duration

	// gates block Students for a class until closed; started receives the class once blocked.
	gates   map[string]chan struct{}
	started chan string

	inFlight    int32
	maxInFlight int32
}

var _ Source = (*fakeSource)(nil)

func (f *fakeSource) Students(ctx context.Context, filter CohortFilter) ([]Student, error) {
	if gate, ok := f.gates[filter.Class]; ok {
		if f.started != nil {
			f.started <- filter.Class
		}
		<-gate
	}
	return FilterStudents(f.students, filter), nil
}

func (f *fakeSource) Student(ctx context.Context, id string) (Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return Student{}, ErrNotFound
}

func (f *fakeSource) StudentMarks(ctx context.Context, studentID string) ([]Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[studentID] {
		return nil, fmt.Errorf("marks of %s unavailable", studentID)
	}
	return f.marks[studentID], nil
}

func (f *fakeSource) ClassExams(ctx context.Context, class string) ([]ClassExam, error) {
	exams, ok := f.exams[class]
	if !ok {
		return nil, ErrClassNotFound
	}
	return exams, nil
}

func mark(studentID, subject, examType, date string, obtained, maxMarks float64) Mark {
	return NewMark(studentID, subject, examType, date, obtained, maxMarks)
}
