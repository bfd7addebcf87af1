package progress

import (
	"fmt"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core"
)

// StudentTimeline averages a student's marks per exam date, oldest first.
// Undated marks are bucketed under UnknownDate, after every dated bucket.
func StudentTimeline(marks []Mark) []TimelinePoint {
	sorted := make([]Mark, len(marks))
	copy(sorted, marks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateLess(dateKey(sorted[i].ExamDate), dateKey(sorted[j].ExamDate))
	})

	groups := groupPercentages(sorted, func(m Mark) string { return dateKey(m.ExamDate) })
	points := make([]TimelinePoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, TimelinePoint{Date: g.key, Percentage: round1(mean(g.sum, g.count))})
	}
	return points
}

func dateKey(date null.String) string {
	if !date.Valid || date.String == "" {
		return UnknownDate
	}
	return date.String
}

// dateLess orders ISO dates lexically, UnknownDate last.
func dateLess(a, b string) bool {
	if a == UnknownDate || b == UnknownDate {
		return a != UnknownDate && b == UnknownDate
	}
	return a < b
}

type examPair struct {
	examType string
	subject  string
}

// ClassTimeline labels the class exam-timeline feed, keeping feed order.
//
// The label is the exam type, suffixed with " · {subject}" unless the subject is DefaultSubject.
// When the (exam type, subject) pair occurs more than once in the feed, the date (or NoDate)
// is appended in parentheses. Duplicate counts are taken over the whole feed before any label is built.
func ClassTimeline(exams []ClassExam) []ClassExamEntry {
	pairCounts := make(map[examPair]int, len(exams))
	for _, e := range exams {
		pairCounts[pairOf(e)]++
	}

	entries := make([]ClassExamEntry, 0, len(exams))
	occurrences := make(map[examPair]int, len(pairCounts))
	labels := make(map[string]int, len(exams))
	for _, e := range exams {
		pair := pairOf(e)
		occurrences[pair]++

		label := pair.examType
		if pair.subject != DefaultSubject {
			label += " · " + pair.subject
		}
		if pairCounts[pair] >= 2 {
			date := NoDate
			if e.ExamDate.Valid && e.ExamDate.String != "" {
				date = e.ExamDate.String
			}
			label += " (" + date + ")"
		}
		// same pair on the same date: keep chart keys unique
		labels[label]++
		if n := labels[label]; n > 1 {
			label += fmt.Sprintf(" #%d", n)
		}

		entries = append(entries, ClassExamEntry{
			Label:        label,
			ExamType:     pair.examType,
			Subject:      pair.subject,
			ExamDate:     e.ExamDate,
			MaxMarks:     maxOrDefault(e.MaxMarks),
			AvgPct:       round1(e.AvgPct),
			StudentCount: e.StudentCount,
			Occurrence:   occurrences[pair],
		})
	}
	return entries
}

func pairOf(e ClassExam) examPair {
	examType := core.CleanString(e.ExamType)
	if examType == "" {
		examType = defaultExamType
	}
	return examPair{examType: examType, subject: subjectOrDefault(e.Subject)}
}

type classExamKey struct {
	examPair
	date string
}

// AggregateClassExams builds the class exam-timeline feed from raw marks:
// one row per (exam type, subject, date) with the mean percentage, the number of distinct students
// and the largest max marks seen. Rows are ordered by date (undated last), then first occurrence.
func AggregateClassExams(marks []Mark) []ClassExam {
	sorted := make([]Mark, len(marks))
	copy(sorted, marks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateLess(dateKey(sorted[i].ExamDate), dateKey(sorted[j].ExamDate))
	})

	type acc struct {
		exam     ClassExam
		sum      float64
		count    int
		students map[string]struct{}
	}

	index := make(map[classExamKey]*acc)
	order := make([]*acc, 0)
	for _, m := range sorted {
		pair := pairOf(ClassExam{ExamType: m.ExamType, Subject: m.Subject})
		key := classExamKey{examPair: pair, date: dateKey(m.ExamDate)}
		a, ok := index[key]
		if !ok {
			a = &acc{
				exam: ClassExam{
					ExamType: pair.examType,
					Subject:  pair.subject,
					ExamDate: m.ExamDate,
				},
				students: make(map[string]struct{}),
			}
			index[key] = a
			order = append(order, a)
		}
		a.sum += m.Percentage()
		a.count++
		a.students[m.StudentID] = struct{}{}
		if outOf := maxOrDefault(m.Max); outOf > a.exam.MaxMarks {
			a.exam.MaxMarks = outOf
		}
	}

	exams := make([]ClassExam, 0, len(order))
	for _, a := range order {
		a.exam.AvgPct = round1(mean(a.sum, a.count))
		a.exam.StudentCount = len(a.students)
		exams = append(exams, a.exam)
	}
	return exams
}
