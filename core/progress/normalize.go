package progress

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core"
)

// RawRecord is a loosely typed row as received from an external feed.
type RawRecord map[string]interface{}

var (
	studentIDKeys = []string{"student_id", "studentId", "id"}
	nameKeys      = []string{"name", "student_name", "full_name", "staff_name"}
	classKeys     = []string{"class", "class_name", "grade"}
	sectionKeys   = []string{"section", "section_name"}

	markStudentKeys = []string{"student_id"}

	subjectKeys  = []string{"subject", "subject_name"}
	examTypeKeys = []string{"exam_type", "exam_name", "exam", "type"}
	examDateKeys = []string{"exam_date", "date"}
	obtainedKeys = []string{"obtained_marks", "marks_obtained", "marks", "score"}
	maxKeys      = []string{"max_marks", "total_marks", "out_of", "max"}

	avgPctKeys       = []string{"avg_pct", "average_pct", "avg_percentage", "average"}
	studentCountKeys = []string{"student_count", "students", "count"}
)

// NormalizeMark converts a raw mark row into a Mark. It never fails: missing or malformed fields are defaulted.
func NormalizeMark(raw RawRecord) Mark {
	return Mark{
		StudentID: raw.str(markStudentKeys...),
		Subject:   subjectOrDefault(raw.str(subjectKeys...)),
		ExamType:  raw.str(examTypeKeys...),
		ExamDate:  raw.date(examDateKeys...),
		Obtained:  obtainedOrDefault(raw.num(obtainedKeys...)),
		Max:       maxOrDefault(raw.num(maxKeys...)),
	}
}

// NormalizeMarks normalizes every row, keeping order.
func NormalizeMarks(raws []RawRecord) []Mark {
	marks := make([]Mark, 0, len(raws))
	for _, raw := range raws {
		marks = append(marks, NormalizeMark(raw))
	}
	return marks
}

// NormalizeStudent converts a raw roster row into a Student.
func NormalizeStudent(raw RawRecord) Student {
	return Student{
		ID:      raw.str(studentIDKeys...),
		Name:    raw.str(nameKeys...),
		Class:   raw.str(classKeys...),
		Section: raw.str(sectionKeys...),
	}
}

// NormalizeStudents normalizes every roster row, keeping order.
func NormalizeStudents(raws []RawRecord) []Student {
	students := make([]Student, 0, len(raws))
	for _, raw := range raws {
		students = append(students, NormalizeStudent(raw))
	}
	return students
}

// NormalizeClassExam converts a raw class exam-timeline row into a ClassExam.
func NormalizeClassExam(raw RawRecord) ClassExam {
	count := finiteOrZero(raw.num(studentCountKeys...))
	switch {
	case count < 0:
		count = 0
	case count > math.MaxInt32:
		count = math.MaxInt32
	}
	avg := finiteOrZero(raw.num(avgPctKeys...))
	return ClassExam{
		ExamType:     raw.str(examTypeKeys...),
		Subject:      subjectOrDefault(raw.str(subjectKeys...)),
		ExamDate:     raw.date(examDateKeys...),
		MaxMarks:     maxOrDefault(raw.num(maxKeys...)),
		AvgPct:       avg,
		StudentCount: int(count),
	}
}

// NormalizeClassExams normalizes every class exam row, keeping order.
func NormalizeClassExams(raws []RawRecord) []ClassExam {
	exams := make([]ClassExam, 0, len(raws))
	for _, raw := range raws {
		exams = append(exams, NormalizeClassExam(raw))
	}
	return exams
}

// lookup returns the first non-nil value among keys.
// Keys match case-insensitively, ignoring "_", "-" and spaces, so "examType" matches "exam_type".
func (raw RawRecord) lookup(keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	rawKeys := make([]string, 0, len(raw))
	for k := range raw {
		rawKeys = append(rawKeys, k)
	}
	sort.Strings(rawKeys)
	for _, key := range keys {
		want := foldKey(key)
		for _, k := range rawKeys {
			if v := raw[k]; v != nil && foldKey(k) == want {
				return v, true
			}
		}
	}
	return nil, false
}

func (raw RawRecord) str(keys ...string) string {
	v, ok := raw.lookup(keys...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}

// num returns NaN when the value is absent or not numeric.
func (raw RawRecord) num(keys ...string) float64 {
	v, ok := raw.lookup(keys...)
	if !ok {
		return math.NaN()
	}
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func (raw RawRecord) date(keys ...string) null.String {
	v, ok := raw.lookup(keys...)
	if !ok {
		return null.String{}
	}
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return null.String{}
		}
		return null.StringFrom(val.Format(dateLayout))
	case *time.Time:
		if val == nil || val.IsZero() {
			return null.String{}
		}
		return null.StringFrom(val.Format(dateLayout))
	default:
		return dateOrNull(raw.str(keys...))
	}
}

func foldKey(key string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(key))
}

const dateLayout = "2006-01-02"

// timestampLayouts are reduced to their date; the zone is kept as written.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05",
}

func subjectOrDefault(subject string) string {
	if subject = core.CleanString(subject); subject == "" {
		return DefaultSubject
	}
	return subject
}

func obtainedOrDefault(obtained float64) float64 {
	if math.IsNaN(obtained) || math.IsInf(obtained, 0) || obtained < 0 {
		return 0
	}
	return obtained
}

func maxOrDefault(maxMarks float64) float64 {
	if math.IsNaN(maxMarks) || math.IsInf(maxMarks, 0) || maxMarks <= 0 {
		return DefaultMaxMarks
	}
	return maxMarks
}

// dateOrNull keeps the date part of timestamps ("2024-05-01T08:00:00Z", "2024-05-01 08:00:00" -> "2024-05-01").
func dateOrNull(date string) null.String {
	date = core.CleanString(date)
	if date == "" {
		return null.String{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return null.StringFrom(t.Format(dateLayout))
		}
	}
	if len(date) > len(dateLayout) && (date[len(dateLayout)] == 'T' || date[len(dateLayout)] == ' ') {
		if _, err := time.Parse(dateLayout, date[:len(dateLayout)]); err == nil {
			return null.StringFrom(date[:len(dateLayout)])
		}
	}
	return null.StringFrom(date)
}
