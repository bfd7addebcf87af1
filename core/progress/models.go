package progress

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core"
)

const (
	// DefaultSubject buckets marks recorded without a subject.
	DefaultSubject = "General"
	// DefaultMaxMarks replaces absent or invalid max marks.
	DefaultMaxMarks = 100.0
	// UnknownDate buckets undated marks in a student's timeline.
	UnknownDate = "Unknown"
	// NoDate is shown in class timeline labels for undated exams.
	NoDate = "No date"

	defaultExamType = "Exam"
)

type Student struct {
	ID      string `json:"student_id"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	Section string `json:"section"`
}

// Mark is a single exam result. Max is never zero.
type Mark struct {
	StudentID string      `json:"student_id,omitempty"`
	Subject   string      `json:"subject"`
	ExamType  string      `json:"exam_type"`
	ExamDate  null.String `json:"exam_date"`
	Obtained  float64     `json:"obtained_marks"`
	Max       float64     `json:"max_marks"`
}

// NewMark builds a Mark applying the same defaults as NormalizeMark.
func NewMark(studentID, subject, examType, examDate string, obtained, maxMarks float64) Mark {
	return Mark{
		StudentID: core.CleanString(studentID),
		Subject:   subjectOrDefault(subject),
		ExamType:  core.CleanString(examType),
		ExamDate:  dateOrNull(examDate),
		Obtained:  obtainedOrDefault(obtained),
		Max:       maxOrDefault(maxMarks),
	}
}

// Percentage returns obtained/max*100, or 0 when that overflows.
func (m Mark) Percentage() float64 {
	outOf := m.Max
	if outOf <= 0 {
		outOf = DefaultMaxMarks
	}
	return finiteOrZero(m.Obtained / outOf * 100)
}

type SubjectAverage struct {
	Subject    string  `json:"subject"`
	Percentage float64 `json:"percentage"`
}

type TimelinePoint struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

type StudentSummary struct {
	StudentID string       `json:"student_id"`
	Name      string       `json:"name"`
	Class     string       `json:"class"`
	Section   string       `json:"section"`
	Average   null.Float64 `json:"average"`
	MarkCount int          `json:"mark_count"`
	Rank      int          `json:"rank"`
}

// CohortOverview is the header data of a cohort summary.
type CohortOverview struct {
	Students  int             `json:"students"`
	WithMarks int             `json:"with_marks"`
	Average   null.Float64    `json:"average"`
	Top       *StudentSummary `json:"top"`
}

// ClassExam is a row of the (pre-aggregated) class exam-timeline feed.
type ClassExam struct {
	ExamType     string      `json:"exam_type"`
	Subject      string      `json:"subject"`
	ExamDate     null.String `json:"exam_date"`
	MaxMarks     float64     `json:"max_marks"`
	AvgPct       float64     `json:"avg_pct"`
	StudentCount int         `json:"student_count"`
}

type ClassExamEntry struct {
	Label        string      `json:"label"`
	ExamType     string      `json:"exam_type"`
	Subject      string      `json:"subject"`
	ExamDate     null.String `json:"exam_date"`
	MaxMarks     float64     `json:"max_marks"`
	AvgPct       float64     `json:"avg_pct"`
	StudentCount int         `json:"student_count"`
	Occurrence   int         `json:"occurrence"`
}

// ClassSections lists the sections of a class, used for class/section dropdowns.
type ClassSections struct {
	Class    string   `json:"class"`
	Sections []string `json:"sections"`
}

type StudentProgress struct {
	Student  Student          `json:"student"`
	Average  null.Float64     `json:"average"`
	Marks    int              `json:"mark_count"`
	Subjects []SubjectAverage `json:"subjects"`
	Timeline []TimelinePoint  `json:"timeline"`
}

// StudentComparison overlays two students; B is nil when only one student is selected.
type StudentComparison struct {
	A        StudentProgress  `json:"a"`
	B        *StudentProgress `json:"b,omitempty"`
	Subjects MergedSeries     `json:"subjects"`
	Timeline MergedSeries     `json:"timeline"`
}

type CohortReport struct {
	Overview CohortOverview   `json:"overview"`
	Students []StudentSummary `json:"students"`
}

// SectionComparison overlays two sections of a class; B is nil when only one section is selected.
type SectionComparison struct {
	Class    string        `json:"class"`
	SectionA string        `json:"section_a"`
	SectionB string        `json:"section_b,omitempty"`
	A        CohortReport  `json:"a"`
	B        *CohortReport `json:"b,omitempty"`
	Ranks    MergedSeries  `json:"ranks"`
	Subjects MergedSeries  `json:"subjects"`
}
