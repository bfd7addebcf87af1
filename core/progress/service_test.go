package progress_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core/progress"
	inmemdb "github.com/trezcool/maendeleo/storage/database/inmem"
	testutil "github.com/trezcool/maendeleo/tests"
)

func newService(t *testing.T) *progress.Service {
	repo := inmemdb.NewProgressRepository(testutil.SeedDB(t))
	return progress.NewService(repo, &testutil.Logger{}, testutil.NewConfig())
}

func nf(v float64) null.Float64 { return null.Float64From(v) }

func TestService_Classes(t *testing.T) {
	classes, err := newService(t).Classes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []progress.ClassSections{
		{Class: "LKG", Sections: []string{"A"}},
		{Class: "5", Sections: []string{"A", "B"}},
	}, classes)
}

func TestService_Cohort(t *testing.T) {
	svc := newService(t)

	t.Run("class", func(t *testing.T) {
		report, err := svc.Cohort(context.Background(), progress.CohortFilter{Class: "5"})
		require.NoError(t, err)

		ids := make([]string, 0, len(report.Students))
		for _, s := range report.Students {
			ids = append(ids, s.StudentID)
		}
		assert.Equal(t, []string{"s3", "s1", "s2", "s4"}, ids)
		assert.Equal(t, 4, report.Overview.Students)
		assert.Equal(t, 3, report.Overview.WithMarks)
		assert.Equal(t, nf(83.3), report.Overview.Average)
		require.NotNil(t, report.Overview.Top)
		assert.Equal(t, "s3", report.Overview.Top.StudentID)
		assert.False(t, report.Students[3].Average.Valid)
		assert.Equal(t, 3, report.Students[1].MarkCount)
	})

	t.Run("section", func(t *testing.T) {
		report, err := svc.Cohort(context.Background(), progress.CohortFilter{Class: "5", Section: "a"})
		require.NoError(t, err)
		require.Len(t, report.Students, 2)
		assert.Equal(t, "s1", report.Students[0].StudentID)
		assert.Equal(t, nf(77.5), report.Overview.Average)
	})

	t.Run("unknown class", func(t *testing.T) {
		report, err := svc.Cohort(context.Background(), progress.CohortFilter{Class: "9"})
		require.NoError(t, err)
		assert.Empty(t, report.Students)
		assert.Equal(t, progress.CohortOverview{}, report.Overview)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := svc.Cohort(context.Background(), progress.CohortFilter{Class: "5"})
		require.NoError(t, err)
		second, err := svc.Cohort(context.Background(), progress.CohortFilter{Class: "5"})
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	})
}

func TestService_Student(t *testing.T) {
	svc := newService(t)

	sp, err := svc.Student(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", sp.Student.Name)
	assert.Equal(t, nf(80), sp.Average)
	assert.Equal(t, 3, sp.Marks)
	assert.Equal(t, []progress.SubjectAverage{{Subject: "Math", Percentage: 85}, {Subject: "Science", Percentage: 70}}, sp.Subjects)
	assert.Equal(t, []progress.TimelinePoint{{Date: "2024-03-01", Percentage: 75}, {Date: "2024-06-01", Percentage: 90}}, sp.Timeline)

	sp, err = svc.Student(context.Background(), "s4")
	require.NoError(t, err)
	assert.False(t, sp.Average.Valid)
	assert.Empty(t, sp.Subjects)
	assert.NotNil(t, sp.Timeline)

	_, err = svc.Student(context.Background(), "s404")
	assert.True(t, errors.Is(err, progress.ErrNotFound))
}

func TestService_CompareStudents(t *testing.T) {
	svc := newService(t)

	cmp, err := svc.CompareStudents(context.Background(), "s1", "s2")
	require.NoError(t, err)
	require.NotNil(t, cmp.B)
	assert.Equal(t, "Ben", cmp.B.Student.Name)

	assert.Equal(t, []string{"Ann", "Ben"}, cmp.Subjects.Series)
	assert.Equal(t, []string{"Math", "Science", "English"}, cmp.Subjects.Keys())
	ben, _ := cmp.Subjects.Column("Ben")
	assert.Equal(t, []null.Float64{nf(60), nf(0), nf(90)}, ben)

	assert.Equal(t, []string{"2024-03-01", "2024-06-01", progress.UnknownDate}, cmp.Timeline.Keys())
	ann, _ := cmp.Timeline.Column("Ann")
	assert.Equal(t, []null.Float64{nf(75), nf(90), {}}, ann)
	ben, _ = cmp.Timeline.Column("Ben")
	assert.Equal(t, []null.Float64{nf(60), {}, nf(90)}, ben)

	single, err := svc.CompareStudents(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Nil(t, single.B)
	assert.Equal(t, []string{"Ann"}, single.Subjects.Series)

	_, err = svc.CompareStudents(context.Background(), "s1", "s404")
	assert.True(t, errors.Is(err, progress.ErrNotFound))
}

func TestService_CompareSections(t *testing.T) {
	svc := newService(t)

	cmp, err := svc.CompareSections(context.Background(), "5", "A", "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"Section A", "Section B"}, cmp.Ranks.Series)
	assert.Equal(t, []progress.MergedRow{
		{Key: "#1", Values: []null.Float64{nf(80), nf(95)}},
		{Key: "#2", Values: []null.Float64{nf(75), nf(0)}},
	}, cmp.Ranks.Rows)
	assert.Equal(t, []progress.MergedRow{
		{Key: "Math", Values: []null.Float64{nf(76.7), nf(0)}},
		{Key: "Science", Values: []null.Float64{nf(70), nf(95)}},
		{Key: "English", Values: []null.Float64{nf(90), nf(0)}},
	}, cmp.Subjects.Rows)
	require.NotNil(t, cmp.B)
	assert.Equal(t, 2, cmp.B.Overview.Students)

	single, err := svc.CompareSections(context.Background(), "5", "B", "")
	require.NoError(t, err)
	assert.Nil(t, single.B)
	assert.Equal(t, []string{"Section B"}, single.Ranks.Series)
	assert.Equal(t, []string{"#1", "#2"}, single.Ranks.Keys())
}

func TestService_ClassTimeline(t *testing.T) {
	svc := newService(t)

	entries, err := svc.ClassTimeline(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.Label)
	}
	assert.Equal(t, []string{"Midterm · Math", "Midterm · Science", "Final · Math", "Final · English"}, labels)
	assert.Equal(t, 70.0, entries[0].AvgPct)
	assert.Equal(t, 2, entries[0].StudentCount)
	assert.Equal(t, 82.5, entries[1].AvgPct)
	assert.Equal(t, 90.0, entries[2].AvgPct)
	assert.Equal(t, 1, entries[2].StudentCount)
	assert.False(t, entries[3].ExamDate.Valid)
	assert.Equal(t, 50.0, entries[3].MaxMarks)

	_, err = svc.ClassTimeline(context.Background(), "9")
	assert.True(t, errors.Is(err, progress.ErrClassNotFound))
}

func TestService_failedFetch(t *testing.T) {
	logger := &testutil.Logger{}
	src := &testutil.FlakySource{
		Source: inmemdb.NewProgressRepository(testutil.SeedDB(t)),
		Fail:   map[string]bool{"s2": true},
	}
	svc := progress.NewService(src, logger, testutil.NewConfig())

	report, err := svc.Cohort(context.Background(), progress.CohortFilter{Class: "5", Section: "A"})
	require.NoError(t, err)
	require.Len(t, report.Students, 2)
	assert.Equal(t, "s1", report.Students[0].StudentID)
	assert.Equal(t, "s2", report.Students[1].StudentID)
	assert.False(t, report.Students[1].Average.Valid)
	assert.Equal(t, 0, report.Students[1].MarkCount)
	assert.Equal(t, 1, logger.Count("WARN"))
}
