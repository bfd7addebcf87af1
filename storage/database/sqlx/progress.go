package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core/progress"
)

const (
	studentColumns = `id, name, class, section`
	markColumns    = `student_id, subject, exam_type, to_char(exam_date, 'YYYY-MM-DD') AS exam_date, obtained_marks, max_marks`
	examColumns    = `exam_type, subject, to_char(exam_date, 'YYYY-MM-DD') AS exam_date, max_marks, avg_pct, student_count`
)

type (
	studentRow struct {
		ID      string      `db:"id"`
		Name    null.String `db:"name"`
		Class   null.String `db:"class"`
		Section null.String `db:"section"`
	}

	markRow struct {
		StudentID string       `db:"student_id"`
		Subject   null.String  `db:"subject"`
		ExamType  null.String  `db:"exam_type"`
		ExamDate  null.String  `db:"exam_date"`
		Obtained  null.Float64 `db:"obtained_marks"`
		Max       null.Float64 `db:"max_marks"`
	}

	classExamRow struct {
		ExamType     null.String  `db:"exam_type"`
		Subject      null.String  `db:"subject"`
		ExamDate     null.String  `db:"exam_date"`
		MaxMarks     null.Float64 `db:"max_marks"`
		AvgPct       null.Float64 `db:"avg_pct"`
		StudentCount null.Int     `db:"student_count"`
	}
)

// progressRepository reads the roster, the marks and the class exam timeline from postgres.
type progressRepository struct {
	db sqlx.QueryerContext
}

var _ progress.Source = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db sqlx.QueryerContext) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) Students(ctx context.Context, filter progress.CohortFilter) ([]progress.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if c := strings.TrimSpace(filter.Class); c != "" {
		args = append(args, c)
		where = append(where, "lower(trim(class)) = lower(?)")
	}
	if s := strings.TrimSpace(filter.Section); s != "" {
		args = append(args, s)
		where = append(where, "lower(trim(section)) = lower(?)")
	}
	q := `SELECT ` + studentColumns + ` FROM students`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY name, id`

	var rows []studentRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]progress.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	progress.SortStudents(students)
	return students, nil
}

func (repo progressRepository) Student(ctx context.Context, id string) (progress.Student, error) {
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.db, &row, q, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.Student{}, progress.ErrNotFound
		}
		return progress.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.toStudent(), nil
}

func (repo progressRepository) StudentMarks(ctx context.Context, studentID string) ([]progress.Mark, error) {
	var rows []markRow
	q := `SELECT ` + markColumns + ` FROM marks WHERE student_id = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting marks")
	}
	marks := make([]progress.Mark, 0, len(rows))
	for _, r := range rows {
		marks = append(marks, progress.NewMark(
			r.StudentID, r.Subject.String, r.ExamType.String, r.ExamDate.String,
			r.Obtained.Float64, r.Max.Float64,
		))
	}
	return marks, nil
}

func (repo progressRepository) ClassExams(ctx context.Context, class string) ([]progress.ClassExam, error) {
	var rows []classExamRow
	q := `SELECT ` + examColumns + ` FROM class_exam_timeline
		WHERE lower(trim(class)) = lower($1)
		ORDER BY exam_date NULLS LAST, exam_type, subject`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, strings.TrimSpace(class)); err != nil {
		return nil, errors.Wrap(err, "selecting class exams")
	}
	exams := make([]progress.ClassExam, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, progress.NormalizeClassExam(r.toRaw()))
	}
	return exams, nil
}

func (r studentRow) toStudent() progress.Student {
	return progress.Student{
		ID:      strings.TrimSpace(r.ID),
		Name:    strings.TrimSpace(r.Name.String),
		Class:   strings.TrimSpace(r.Class.String),
		Section: strings.TrimSpace(r.Section.String),
	}
}

// toRaw hands the row to the normalizer so the view gets the same defaults as feed rows.
func (r classExamRow) toRaw() progress.RawRecord {
	raw := progress.RawRecord{
		"exam_type": r.ExamType.String,
		"subject":   r.Subject.String,
		"exam_date": r.ExamDate.String,
	}
	if r.MaxMarks.Valid {
		raw["max_marks"] = r.MaxMarks.Float64
	}
	if r.AvgPct.Valid {
		raw["avg_pct"] = r.AvgPct.Float64
	}
	if r.StudentCount.Valid {
		raw["student_count"] = r.StudentCount.Int
	}
	return raw
}
