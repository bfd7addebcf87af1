package progress

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestNormalizeMark(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRecord
		want Mark
	}{
		{
			name: "complete row",
			raw: RawRecord{
				"student_id":     "s1",
				"subject":        " Math ",
				"exam_type":      "Midterm",
				"exam_date":      "2024-05-01",
				"obtained_marks": 42.0,
				"max_marks":      50.0,
			},
			want: Mark{StudentID: "s1", Subject: "Math", ExamType: "Midterm", ExamDate: null.StringFrom("2024-05-01"), Obtained: 42, Max: 50},
		},
		{
			name: "empty row",
			raw:  RawRecord{},
			want: Mark{Subject: DefaultSubject, Obtained: 0, Max: DefaultMaxMarks},
		},
		{
			name: "numeric strings",
			raw:  RawRecord{"obtained_marks": " 17.5", "max_marks": "20"},
			want: Mark{Subject: DefaultSubject, Obtained: 17.5, Max: 20},
		},
		{
			name: "malformed numbers",
			raw:  RawRecord{"obtained_marks": "abc", "max_marks": "n/a"},
			want: Mark{Subject: DefaultSubject, Obtained: 0, Max: DefaultMaxMarks},
		},
		{
			name: "zero max marks",
			raw:  RawRecord{"obtained_marks": 10, "max_marks": 0},
			want: Mark{Subject: DefaultSubject, Obtained: 10, Max: DefaultMaxMarks},
		},
		{
			name: "negative numbers",
			raw:  RawRecord{"obtained_marks": -3, "max_marks": -5},
			want: Mark{Subject: DefaultSubject, Obtained: 0, Max: DefaultMaxMarks},
		},
		{
			name: "blank subject",
			raw:  RawRecord{"subject": "   ", "obtained_marks": 5},
			want: Mark{Subject: DefaultSubject, Obtained: 5, Max: DefaultMaxMarks},
		},
		{
			name: "timestamp date",
			raw:  RawRecord{"exam_date": "2024-05-01T08:00:00Z"},
			want: Mark{Subject: DefaultSubject, ExamDate: null.StringFrom("2024-05-01"), Max: DefaultMaxMarks},
		},
		{
			name: "time value date",
			raw:  RawRecord{"exam_date": time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)},
			want: Mark{Subject: DefaultSubject, ExamDate: null.StringFrom("2024-02-29"), Max: DefaultMaxMarks},
		},
		{
			name: "blank date",
			raw:  RawRecord{"exam_date": " "},
			want: Mark{Subject: DefaultSubject, Max: DefaultMaxMarks},
		},
		{
			name: "null values",
			raw:  RawRecord{"subject": nil, "obtained_marks": nil, "max_marks": nil, "exam_date": nil},
			want: Mark{Subject: DefaultSubject, Max: DefaultMaxMarks},
		},
		{
			name: "drifted key spelling",
			raw:  RawRecord{"studentId": "s9", "Subject": "Art", "examType": "Quiz", "Exam Date": "2024-01-02", "marks_obtained": 3, "total_marks": 4},
			want: Mark{StudentID: "s9", Subject: "Art", ExamType: "Quiz", ExamDate: null.StringFrom("2024-01-02"), Obtained: 3, Max: 4},
		},
		{
			name: "id is not a mark's student",
			raw:  RawRecord{"id": 12, "obtained_marks": 1},
			want: Mark{Subject: DefaultSubject, Obtained: 1, Max: DefaultMaxMarks},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMark(tt.raw))
		})
	}
}

func TestNormalizeMark_percentageIsFinite(t *testing.T) {
	raws := []RawRecord{
		{},
		{"max_marks": 0},
		{"max_marks": "0"},
		{"obtained_marks": "x", "max_marks": "y"},
	}
	for _, m := range NormalizeMarks(raws) {
		assert.Equal(t, 0.0, m.Percentage())
	}
}

func TestExtremeMarks_stayFinite(t *testing.T) {
	huge := NormalizeMark(RawRecord{"student_id": "s1", "obtained_marks": 1e300, "max_marks": 1e-10})
	assert.Equal(t, 0.0, huge.Percentage())

	assert.NotPanics(t, func() {
		assert.Equal(t, []SubjectAverage{{Subject: DefaultSubject, Percentage: 0}}, SubjectAverages([]Mark{huge}))
		for _, p := range StudentTimeline([]Mark{huge}) {
			assert.Equal(t, 0.0, p.Percentage)
		}
	})

	// each percentage is finite, their sum is not
	overflow := []Mark{
		NewMark("s1", "Math", "Exam", "2024-01-01", 1.7e308, 100),
		NewMark("s1", "Math", "Exam", "2024-01-01", 1.7e308, 100),
	}
	cohort := []Student{{ID: "s1", Name: "Ann"}}
	var summaries []StudentSummary
	assert.NotPanics(t, func() {
		summaries = Summarize(cohort, map[string][]Mark{"s1": overflow})
	})
	assert.Equal(t, null.Float64From(0), summaries[0].Average)
	_, err := json.Marshal(summaries)
	assert.NoError(t, err)

	assert.Equal(t, 0.0, round1(math.Inf(1)))
	assert.Equal(t, 0.0, round1(math.NaN()))
	assert.Equal(t, 0.0, mean(math.Inf(-1), 2))
}

func TestNormalizeClassExam_studentCountClamped(t *testing.T) {
	assert.Equal(t, math.MaxInt32, NormalizeClassExam(RawRecord{"student_count": 1e300}).StudentCount)
	assert.Equal(t, 0, NormalizeClassExam(RawRecord{"student_count": -4}).StudentCount)
	assert.Equal(t, 0.0, NormalizeClassExam(RawRecord{"avg_pct": math.Inf(1)}).AvgPct)
}

func TestDateOrNull(t *testing.T) {
	tests := []struct {
		in   string
		want null.String
	}{
		{in: "2024-05-01", want: null.StringFrom("2024-05-01")},
		{in: "2024-05-01T08:00:00Z", want: null.StringFrom("2024-05-01")},
		{in: "2024-05-01T08:00:00.123+03:00", want: null.StringFrom("2024-05-01")},
		{in: "2024-05-01 08:00:00", want: null.StringFrom("2024-05-01")},
		{in: "2024-05-01 23:30:00+05:30", want: null.StringFrom("2024-05-01")},
		{in: "2024-05-01 08:00:00.5+03", want: null.StringFrom("2024-05-01")},
		{in: " 2024-05-01 08:00 ", want: null.StringFrom("2024-05-01")},
		{in: "May 1", want: null.StringFrom("May 1")},
		{in: "  ", want: null.String{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, dateOrNull(tt.in))
		})
	}

	// same-day SQL timestamps share one timeline point
	marks := NormalizeMarks([]RawRecord{
		{"exam_date": "2024-05-01 08:00:00", "obtained_marks": 40},
		{"exam_date": "2024-05-01T14:00:00Z", "obtained_marks": 60},
	})
	assert.Equal(t, []TimelinePoint{{Date: "2024-05-01", Percentage: 50}}, StudentTimeline(marks))
}

func TestNormalizeStudent(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRecord
		want Student
	}{
		{
			name: "student_id",
			raw:  RawRecord{"student_id": "s1", "name": "Ann", "class": "5", "section": "A"},
			want: Student{ID: "s1", Name: "Ann", Class: "5", Section: "A"},
		},
		{
			name: "numeric id",
			raw:  RawRecord{"id": 7.0, "full_name": "Ben", "grade": "LKG", "section_name": " B "},
			want: Student{ID: "7", Name: "Ben", Class: "LKG", Section: "B"},
		},
		{
			name: "student_id wins over id",
			raw:  RawRecord{"id": "row-1", "student_id": "s2"},
			want: Student{ID: "s2"},
		},
		{
			name: "empty row",
			raw:  RawRecord{},
			want: Student{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStudent(tt.raw))
		})
	}
}

func TestNormalizeClassExam(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRecord
		want ClassExam
	}{
		{
			name: "complete row",
			raw: RawRecord{
				"exam_type": "Unit Test", "subject": "Math", "exam_date": "2024-01-10",
				"max_marks": 25.0, "avg_pct": 81.25, "student_count": 30.0,
			},
			want: ClassExam{ExamType: "Unit Test", Subject: "Math", ExamDate: null.StringFrom("2024-01-10"), MaxMarks: 25, AvgPct: 81.25, StudentCount: 30},
		},
		{
			name: "defaults",
			raw:  RawRecord{"avg_pct": "bad", "student_count": -4, "max_marks": nil},
			want: ClassExam{Subject: DefaultSubject, MaxMarks: DefaultMaxMarks},
		},
		{
			name: "string numbers",
			raw:  RawRecord{"exam_type": "Final", "avg_pct": "66.5", "student_count": "12"},
			want: ClassExam{ExamType: "Final", Subject: DefaultSubject, MaxMarks: DefaultMaxMarks, AvgPct: 66.5, StudentCount: 12},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeClassExam(tt.raw))
		})
	}
}

func TestNewMark(t *testing.T) {
	assert.Equal(t,
		Mark{StudentID: "s1", Subject: DefaultSubject, ExamType: "Quiz", ExamDate: null.StringFrom("2024-05-01"), Obtained: 0, Max: DefaultMaxMarks},
		NewMark(" s1 ", "", " Quiz", "2024-05-01T09:30:00+02:00", -1, 0),
	)
}
