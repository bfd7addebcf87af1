package progress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"
)

// Summarize computes every student's average and mark count, then ranks the cohort.
//
// Students with marks come first, by average descending; equal averages are ordered by student id
// ascending, then cohort order. Students without marks follow in cohort order.
// Rank is the 1-based position in that order. Reported averages are rounded to one decimal.
func Summarize(cohort []Student, marksByStudent map[string][]Mark) []StudentSummary {
	type ranked struct {
		summary StudentSummary
		avg     float64 // unrounded
		pos     int
	}

	rows := make([]ranked, 0, len(cohort))
	for i, s := range cohort {
		marks := marksByStudent[s.ID]
		r := ranked{
			summary: StudentSummary{
				StudentID: s.ID,
				Name:      s.Name,
				Class:     s.Class,
				Section:   s.Section,
				MarkCount: len(marks),
			},
			pos: i,
		}
		if avg, ok := OverallAverage(marks); ok {
			r.avg = avg
			r.summary.Average = null.Float64From(round1(avg))
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.summary.Average.Valid != b.summary.Average.Valid {
			return a.summary.Average.Valid
		}
		if !a.summary.Average.Valid {
			return a.pos < b.pos
		}
		if a.avg != b.avg {
			return a.avg > b.avg
		}
		if a.summary.StudentID != b.summary.StudentID {
			return a.summary.StudentID < b.summary.StudentID
		}
		return a.pos < b.pos
	})

	summaries := make([]StudentSummary, 0, len(rows))
	for i, r := range rows {
		r.summary.Rank = i + 1
		summaries = append(summaries, r.summary)
	}
	return summaries
}

// Overview computes the cohort header: sizes, the mean of the students' averages and the top student.
func Overview(summaries []StudentSummary) CohortOverview {
	ov := CohortOverview{Students: len(summaries)}
	var sum float64
	for i, s := range summaries {
		if !s.Average.Valid {
			continue
		}
		ov.WithMarks++
		sum += s.Average.Float64
		if s.Rank == 1 {
			top := summaries[i]
			ov.Top = &top
		}
	}
	if ov.WithMarks > 0 {
		ov.Average = null.Float64From(round1(mean(sum, ov.WithMarks)))
	}
	return ov
}

// Ordering is a display ordering over summaries; ranks are never changed.
type Ordering struct {
	Field     string
	Ascending bool
}

// Summary ordering fields
const (
	OrderByRank    = "rank"
	OrderByName    = "name"
	OrderByAverage = "average"
	OrderByClass   = "class"
)

// IsValidOrderingField reports whether field can be used to order summaries.
func IsValidOrderingField(field string) bool {
	switch field {
	case OrderByRank, OrderByName, OrderByAverage, OrderByClass:
		return true
	}
	return false
}

// ParseOrderings parses a comma separated list of fields ("name,-average"); a leading "-" sorts descending.
func ParseOrderings(s string) ([]Ordering, error) {
	var orderings []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !IsValidOrderingField(field) {
			return nil, fmt.Errorf("invalid ordering field: %s", field)
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings, nil
}

// OrderSummaries returns a copy of summaries sorted by orderings, falling back to rank.
func OrderSummaries(summaries []StudentSummary, orderings []Ordering) []StudentSummary {
	sorted := make([]StudentSummary, len(summaries))
	copy(sorted, summaries)
	if len(orderings) == 0 {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		for _, ord := range orderings {
			c := compareSummaries(a, b, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return a.Rank < b.Rank
	})
	return sorted
}

func compareSummaries(a, b StudentSummary, field string) int {
	switch field {
	case OrderByRank:
		return compareInts(a.Rank, b.Rank)
	case OrderByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case OrderByAverage:
		// null averages sort lowest
		switch {
		case a.Average.Valid && !b.Average.Valid:
			return 1
		case !a.Average.Valid && b.Average.Valid:
			return -1
		case a.Average.Float64 < b.Average.Float64:
			return -1
		case a.Average.Float64 > b.Average.Float64:
			return 1
		}
		return 0
	case OrderByClass:
		if c := CompareClasses(a.Class, b.Class); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Section), strings.ToLower(b.Section))
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
