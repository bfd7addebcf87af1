package progress

import (
	"context"
	"errors"
	"strings"

	"github.com/trezcool/maendeleo/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrClassNotFound = errors.New("class not found")
)

type (
	// CohortFilter selects students by class and optionally section. An empty filter selects everyone.
	CohortFilter struct {
		Class   string
		Section string
	}

	// RosterSource supplies students. Order of the returned students is preserved by the engine.
	RosterSource interface {
		Students(ctx context.Context, filter CohortFilter) ([]Student, error)
		Student(ctx context.Context, id string) (Student, error)
	}

	// MarkSource supplies the marks of one student.
	MarkSource interface {
		StudentMarks(ctx context.Context, studentID string) ([]Mark, error)
	}

	// ClassExamSource supplies the pre-aggregated exam timeline of a class.
	ClassExamSource interface {
		ClassExams(ctx context.Context, class string) ([]ClassExam, error)
	}

	// Source is a data collaborator able to serve every feed.
	Source interface {
		RosterSource
		MarkSource
		ClassExamSource
	}
)

// Matches reports whether s belongs to the cohort. Class and section compare case-insensitively.
func (f CohortFilter) Matches(s Student) bool {
	if f.Class != "" && !strings.EqualFold(core.CleanString(f.Class), core.CleanString(s.Class)) {
		return false
	}
	if f.Section != "" && !strings.EqualFold(core.CleanString(f.Section), core.CleanString(s.Section)) {
		return false
	}
	return true
}

// FilterStudents returns the students matching f, keeping order.
func FilterStudents(students []Student, f CohortFilter) []Student {
	cohort := make([]Student, 0, len(students))
	for _, s := range students {
		if f.Matches(s) {
			cohort = append(cohort, s)
		}
	}
	return cohort
}
