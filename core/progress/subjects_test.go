package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectAverages(t *testing.T) {
	tests := []struct {
		name  string
		marks []Mark
		want  []SubjectAverage
	}{
		{
			name:  "no marks",
			marks: nil,
			want:  []SubjectAverage{},
		},
		{
			name: "first occurrence order",
			marks: []Mark{
				mark("s1", "Math", "Midterm", "2024-03-01", 80, 100),
				mark("s1", "Science", "Midterm", "2024-03-01", 70, 100),
				mark("s1", "Math", "Final", "2024-06-01", 90, 100),
			},
			want: []SubjectAverage{{Subject: "Math", Percentage: 85}, {Subject: "Science", Percentage: 70}},
		},
		{
			name: "different max marks",
			marks: []Mark{
				mark("s1", "Math", "Quiz", "", 10, 20),
				mark("s1", "Math", "Quiz", "", 30, 40),
			},
			want: []SubjectAverage{{Subject: "Math", Percentage: 62.5}},
		},
		{
			name: "rounded to one decimal",
			marks: []Mark{
				mark("s1", "Art", "", "", 1, 3),
			},
			want: []SubjectAverage{{Subject: "Art", Percentage: 33.3}},
		},
		{
			name: "missing subject is General",
			marks: []Mark{
				{Obtained: 5, Max: 10},
				mark("s1", "", "", "", 7, 10),
			},
			want: []SubjectAverage{{Subject: DefaultSubject, Percentage: 60}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectAverages(tt.marks))
		})
	}
}

func TestOverallAverage(t *testing.T) {
	marks := []Mark{
		mark("s1", "Math", "Midterm", "2024-03-01", 80, 100),
		mark("s1", "Math", "Final", "2024-06-01", 90, 100),
		mark("s1", "Science", "Midterm", "2024-03-01", 70, 100),
	}
	avg, ok := OverallAverage(marks)
	assert.True(t, ok)
	assert.InDelta(t, 80.0, avg, 1e-9)

	// the overall average is over marks, not over subject averages
	subjects := SubjectAverages(marks)
	assert.Equal(t, []SubjectAverage{{Subject: "Math", Percentage: 85}, {Subject: "Science", Percentage: 70}}, subjects)

	_, ok = OverallAverage(nil)
	assert.False(t, ok)
}

func TestPooledSubjectAverages(t *testing.T) {
	cohort := []Student{{ID: "s2"}, {ID: "s1"}, {ID: "s3"}}
	marks := map[string][]Mark{
		"s1": {mark("s1", "Math", "", "", 100, 100)},
		"s2": {mark("s2", "Science", "", "", 50, 100), mark("s2", "Math", "", "", 50, 100)},
	}
	assert.Equal(t,
		[]SubjectAverage{{Subject: "Science", Percentage: 50}, {Subject: "Math", Percentage: 75}},
		PooledSubjectAverages(cohort, marks),
	)
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 85.05, want: 85.1},
		{in: 85.04, want: 85},
		{in: 66.66666, want: 66.7},
		{in: 0.05, want: 0.1},
		{in: 100, want: 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round1(tt.in), "round1(%v)", tt.in)
	}
}
