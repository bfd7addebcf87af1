package progress

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Ticket identifies one selection change.
type Ticket uint64

// Tracker hands out tickets in increasing order; only the latest ticket is current.
type Tracker struct {
	gen uint64
}

// Begin starts a new selection, making every earlier ticket stale.
func (t *Tracker) Begin() Ticket {
	return Ticket(atomic.AddUint64(&t.gen, 1))
}

// Current reports whether no selection started after tk.
func (t *Tracker) Current(tk Ticket) bool {
	return atomic.LoadUint64(&t.gen) == uint64(tk)
}

type ViewKind string

const (
	ViewClasses  ViewKind = "classes"
	ViewCohort   ViewKind = "cohort"
	ViewStudent  ViewKind = "student"
	ViewStudents ViewKind = "students"
	ViewSections ViewKind = "sections"
	ViewTimeline ViewKind = "timeline"
)

// Selection is what the user picked on the dashboard.
type Selection struct {
	Kind     ViewKind
	Class    string
	Section  string
	SectionB string
	Student  string
	StudentB string
}

// View holds the result of a Selection; only the field matching Kind is set.
type View struct {
	Selection Selection
	Classes   []ClassSections
	Cohort    *CohortReport
	Student   *StudentProgress
	Students  *StudentComparison
	Sections  *SectionComparison
	Timeline  []ClassExamEntry
}

// Loader builds views for successive selections and drops the ones overtaken by a newer selection.
type Loader struct {
	svc     *Service
	tracker Tracker
}

func NewLoader(svc *Service) *Loader {
	return &Loader{svc: svc}
}

// Load builds the view of sel. ok is false when another Load started meanwhile;
// the returned view must then be discarded.
func (l *Loader) Load(ctx context.Context, sel Selection) (View, bool, error) {
	tk := l.tracker.Begin()
	v, err := l.build(ctx, sel)
	if !l.tracker.Current(tk) {
		return View{}, false, nil
	}
	if err != nil {
		return View{}, true, err
	}
	return v, true, nil
}

func (l *Loader) build(ctx context.Context, sel Selection) (View, error) {
	v := View{Selection: sel}
	switch sel.Kind {
	case ViewClasses:
		classes, err := l.svc.Classes(ctx)
		if err != nil {
			return v, err
		}
		v.Classes = classes
	case ViewCohort:
		report, err := l.svc.Cohort(ctx, CohortFilter{Class: sel.Class, Section: sel.Section})
		if err != nil {
			return v, err
		}
		v.Cohort = &report
	case ViewStudent:
		sp, err := l.svc.Student(ctx, sel.Student)
		if err != nil {
			return v, err
		}
		v.Student = &sp
	case ViewStudents:
		cmp, err := l.svc.CompareStudents(ctx, sel.Student, sel.StudentB)
		if err != nil {
			return v, err
		}
		v.Students = &cmp
	case ViewSections:
		cmp, err := l.svc.CompareSections(ctx, sel.Class, sel.Section, sel.SectionB)
		if err != nil {
			return v, err
		}
		v.Sections = &cmp
	case ViewTimeline:
		timeline, err := l.svc.ClassTimeline(ctx, sel.Class)
		if err != nil {
			return v, err
		}
		v.Timeline = timeline
	default:
		return v, errors.Errorf("unknown view %q", sel.Kind)
	}
	return v, nil
}
