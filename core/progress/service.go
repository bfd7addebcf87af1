package progress

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core"
)

// Service runs the analytics pipeline over a data source: fetch, normalize, aggregate, rank, merge.
// It holds no selection state; callers pass every selection explicitly.
type Service struct {
	src      Source
	logger   core.Logger
	parallel int
}

func NewService(src Source, logger core.Logger, conf *core.Config) *Service {
	svc := &Service{src: src, logger: logger, parallel: DefaultParallelFetches}
	if conf != nil && conf.Progress.MaxParallelFetches > 0 {
		svc.parallel = conf.Progress.MaxParallelFetches
	}
	return svc
}

// Classes lists the classes of the roster with their sections, in class order.
func (svc *Service) Classes(ctx context.Context) ([]ClassSections, error) {
	students, err := svc.src.Students(ctx, CohortFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "fetching roster")
	}
	return GroupClasses(students), nil
}

// Cohort summarizes and ranks the students selected by filter.
func (svc *Service) Cohort(ctx context.Context, filter CohortFilter) (CohortReport, error) {
	students, err := svc.src.Students(ctx, filter)
	if err != nil {
		return CohortReport{}, errors.Wrap(err, "fetching roster")
	}
	cohort := FilterStudents(students, filter)
	return BuildCohortReport(cohort, svc.fetchMarks(ctx, cohort)), nil
}

// Student builds the progress of one student.
func (svc *Service) Student(ctx context.Context, id string) (StudentProgress, error) {
	s, err := svc.src.Student(ctx, id)
	if err != nil {
		return StudentProgress{}, errors.Wrapf(err, "fetching student %q", id)
	}
	marks := svc.fetchMarks(ctx, []Student{s})
	return BuildStudentProgress(s, marks[s.ID]), nil
}

// CompareStudents overlays the subject and timeline series of two students.
// An empty idB yields the single-student view.
func (svc *Service) CompareStudents(ctx context.Context, idA, idB string) (StudentComparison, error) {
	a, err := svc.src.Student(ctx, idA)
	if err != nil {
		return StudentComparison{}, errors.Wrapf(err, "fetching student %q", idA)
	}
	selected := []Student{a}
	if idB != "" {
		b, err := svc.src.Student(ctx, idB)
		if err != nil {
			return StudentComparison{}, errors.Wrapf(err, "fetching student %q", idB)
		}
		selected = append(selected, b)
	}

	marks := svc.fetchMarks(ctx, selected)
	progresses := make([]StudentProgress, 0, len(selected))
	for _, s := range selected {
		progresses = append(progresses, BuildStudentProgress(s, marks[s.ID]))
	}
	return CompareProgresses(progresses[0], optional(progresses, 1)), nil
}

// CompareSections overlays two sections of a class: rank-by-rank averages and pooled subject averages.
// An empty sectionB yields the single-section view.
func (svc *Service) CompareSections(ctx context.Context, class, sectionA, sectionB string) (SectionComparison, error) {
	students, err := svc.src.Students(ctx, CohortFilter{Class: class})
	if err != nil {
		return SectionComparison{}, errors.Wrap(err, "fetching roster")
	}
	cohortA := FilterStudents(students, CohortFilter{Class: class, Section: sectionA})
	var cohortB []Student
	all := cohortA
	if sectionB != "" {
		cohortB = FilterStudents(students, CohortFilter{Class: class, Section: sectionB})
		all = append(append([]Student{}, cohortA...), cohortB...)
	}

	// one batch for both sections
	marks := svc.fetchMarks(ctx, all)

	cmp := SectionComparison{Class: class, SectionA: sectionA, SectionB: sectionB}
	cmp.A = BuildCohortReport(cohortA, marks)
	ranksA := Entity{Label: sectionLabel(sectionA, "A"), Points: CohortPoints(cmp.A.Students)}
	subjectsA := Entity{Label: ranksA.Label, Points: SubjectPoints(PooledSubjectAverages(cohortA, marks))}
	if sectionB == "" {
		cmp.Ranks = MergeCohorts(ranksA, nil)
		cmp.Subjects = MergeSubjects(subjectsA, nil)
		return cmp, nil
	}

	reportB := BuildCohortReport(cohortB, marks)
	cmp.B = &reportB
	ranksB := Entity{Label: sectionLabel(sectionB, "B"), Points: CohortPoints(reportB.Students)}
	subjectsB := Entity{Label: ranksB.Label, Points: SubjectPoints(PooledSubjectAverages(cohortB, marks))}
	cmp.Ranks = MergeCohorts(ranksA, &ranksB)
	cmp.Subjects = MergeSubjects(subjectsA, &subjectsB)
	return cmp, nil
}

// ClassTimeline labels the exam timeline of a class.
func (svc *Service) ClassTimeline(ctx context.Context, class string) ([]ClassExamEntry, error) {
	exams, err := svc.src.ClassExams(ctx, class)
	if err != nil {
		return nil, errors.Wrap(err, "fetching class exams")
	}
	return ClassTimeline(exams), nil
}

// fetchMarks fetches marks in parallel; failed students are logged and count as having no marks.
func (svc *Service) fetchMarks(ctx context.Context, students []Student) map[string][]Mark {
	marks, failures := FetchMarks(ctx, svc.src, students, FetchOptions{Parallel: svc.parallel})
	for _, f := range failures {
		if svc.logger != nil {
			svc.logger.Warn(
				fmt.Sprintf("fetching marks of student %q", f.StudentID),
				errors.Wrap(f.Err, "fetching marks"),
			)
		}
	}
	return marks
}

// BuildStudentProgress aggregates one student's marks.
func BuildStudentProgress(s Student, marks []Mark) StudentProgress {
	sp := StudentProgress{
		Student:  s,
		Marks:    len(marks),
		Subjects: SubjectAverages(marks),
		Timeline: StudentTimeline(marks),
	}
	if avg, ok := OverallAverage(marks); ok {
		sp.Average = null.Float64From(round1(avg))
	}
	return sp
}

// BuildCohortReport ranks a cohort and computes its overview.
func BuildCohortReport(cohort []Student, marksByStudent map[string][]Mark) CohortReport {
	summaries := Summarize(cohort, marksByStudent)
	return CohortReport{Overview: Overview(summaries), Students: summaries}
}

// CompareProgresses merges two student progresses; b may be nil.
func CompareProgresses(a StudentProgress, b *StudentProgress) StudentComparison {
	subjectsA := Entity{Label: studentLabel(a.Student, "A"), Points: SubjectPoints(a.Subjects)}
	timelineA := Entity{Label: subjectsA.Label, Points: TimelinePoints(a.Timeline)}
	cmp := StudentComparison{A: a, B: b}
	if b == nil {
		cmp.Subjects = MergeSubjects(subjectsA, nil)
		cmp.Timeline = MergeTimelines(timelineA, nil)
		return cmp
	}
	subjectsB := Entity{Label: studentLabel(b.Student, "B"), Points: SubjectPoints(b.Subjects)}
	timelineB := Entity{Label: subjectsB.Label, Points: TimelinePoints(b.Timeline)}
	cmp.Subjects = MergeSubjects(subjectsA, &subjectsB)
	cmp.Timeline = MergeTimelines(timelineA, &timelineB)
	return cmp
}

func optional(progresses []StudentProgress, i int) *StudentProgress {
	if i < len(progresses) {
		return &progresses[i]
	}
	return nil
}

func studentLabel(s Student, fallback string) string {
	if name := core.CleanString(s.Name); name != "" {
		return name
	}
	if id := core.CleanString(s.ID); id != "" {
		return id
	}
	return fallback
}

func sectionLabel(section, fallback string) string {
	if section = core.CleanString(section); section != "" {
		return "Section " + section
	}
	return fallback
}
