package progress

// group accumulates percentages for one key.
type group struct {
	key   string
	sum   float64
	count int
}

// groupPercentages groups mark percentages by keyFn, keeping the order in which keys first appear.
func groupPercentages(marks []Mark, keyFn func(Mark) string) []*group {
	index := make(map[string]*group)
	order := make([]*group, 0)
	for _, m := range marks {
		key := keyFn(m)
		g, ok := index[key]
		if !ok {
			g = &group{key: key}
			index[key] = g
			order = append(order, g)
		}
		g.sum += m.Percentage()
		g.count++
	}
	return order
}

// SubjectAverages returns one average per subject, in order of first occurrence, rounded to one decimal.
func SubjectAverages(marks []Mark) []SubjectAverage {
	groups := groupPercentages(marks, func(m Mark) string { return subjectOrDefault(m.Subject) })
	avgs := make([]SubjectAverage, 0, len(groups))
	for _, g := range groups {
		avgs = append(avgs, SubjectAverage{Subject: g.key, Percentage: round1(mean(g.sum, g.count))})
	}
	return avgs
}

// PooledSubjectAverages averages every mark of a cohort per subject.
// Subjects are ordered by first occurrence walking students in cohort order.
func PooledSubjectAverages(cohort []Student, marksByStudent map[string][]Mark) []SubjectAverage {
	var all []Mark
	for _, s := range cohort {
		all = append(all, marksByStudent[s.ID]...)
	}
	return SubjectAverages(all)
}

// OverallAverage is the mean percentage of all marks; ok is false when there are none. Not rounded.
func OverallAverage(marks []Mark) (avg float64, ok bool) {
	if len(marks) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range marks {
		sum += m.Percentage()
	}
	return mean(sum, len(marks)), true
}
