package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/maendeleo/core/progress"
)

type progressRepository struct {
	db *DB
}

var _ progress.Source = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) Students(ctx context.Context, filter progress.CohortFilter) ([]progress.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.db.roster.RLock()
	defer repo.db.roster.RUnlock()
	return progress.FilterStudents(repo.db.roster.rows, filter), nil
}

func (repo *progressRepository) Student(ctx context.Context, id string) (progress.Student, error) {
	if err := ctx.Err(); err != nil {
		return progress.Student{}, err
	}
	repo.db.roster.RLock()
	defer repo.db.roster.RUnlock()

	if i, ok := repo.db.roster.byID[strings.TrimSpace(id)]; ok {
		return repo.db.roster.rows[i], nil
	}
	return progress.Student{}, progress.ErrNotFound
}

func (repo *progressRepository) StudentMarks(ctx context.Context, studentID string) ([]progress.Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.db.marks.RLock()
	defer repo.db.marks.RUnlock()

	marks := repo.db.marks.table[studentID]
	return append(make([]progress.Mark, 0, len(marks)), marks...), nil
}

// ClassExams returns the explicit timeline of class, or aggregates one from the marks of its students.
func (repo *progressRepository) ClassExams(ctx context.Context, class string) ([]progress.ClassExam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.exams.RLock()
	exams, ok := repo.db.exams.table[classKey(class)]
	repo.db.exams.RUnlock()
	if ok {
		return append(make([]progress.ClassExam, 0, len(exams)), exams...), nil
	}

	students, _ := repo.Students(ctx, progress.CohortFilter{Class: class})
	if len(students) == 0 {
		return nil, progress.ErrClassNotFound
	}

	repo.db.marks.RLock()
	defer repo.db.marks.RUnlock()
	var marks []progress.Mark
	for _, s := range students {
		marks = append(marks, repo.db.marks.table[s.ID]...)
	}
	return progress.AggregateClassExams(marks), nil
}
