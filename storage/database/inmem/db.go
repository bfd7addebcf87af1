package inmemdb

import (
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core/progress"
)

type (
	DB struct {
		roster *rosterTable
		marks  *markTable
		exams  *examTable
	}

	rosterTable struct {
		sync.RWMutex
		rows []progress.Student
		byID map[string]int
	}

	markTable struct {
		sync.RWMutex
		table map[string][]progress.Mark
	}

	// examTable holds explicit class timelines, keyed by folded class name.
	examTable struct {
		sync.RWMutex
		table map[string][]progress.ClassExam
	}

	// seed is the JSON snapshot format: loosely typed rows, normalized on load.
	seed struct {
		Students   []progress.RawRecord            `json:"students"`
		Marks      []progress.RawRecord            `json:"marks"`
		ClassExams map[string][]progress.RawRecord `json:"class_exams"`
	}
)

func Open() *DB {
	return &DB{
		roster: &rosterTable{byID: make(map[string]int)},
		marks:  &markTable{table: make(map[string][]progress.Mark)},
		exams:  &examTable{table: make(map[string][]progress.ClassExam)},
	}
}

// OpenSeedFile opens a DB loaded with the JSON snapshot at path.
func OpenSeedFile(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading seed file")
	}
	db := Open()
	if err = db.LoadJSON(data); err != nil {
		return nil, err
	}
	return db, nil
}

// LoadJSON adds the students, marks and class timelines of a JSON snapshot.
func (db *DB) LoadJSON(data []byte) error {
	var s seed
	if err := sonic.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding seed")
	}
	db.AddStudents(progress.NormalizeStudents(s.Students)...)
	db.AddMarks(progress.NormalizeMarks(s.Marks)...)
	for class, rows := range s.ClassExams {
		db.SetClassExams(class, progress.NormalizeClassExams(rows))
	}
	return nil
}

// AddStudents appends students to the roster; a known id replaces the previous record in place.
func (db *DB) AddStudents(students ...progress.Student) {
	db.roster.Lock()
	defer db.roster.Unlock()

	for _, s := range students {
		if s.ID == "" {
			continue
		}
		if i, ok := db.roster.byID[s.ID]; ok {
			db.roster.rows[i] = s
			continue
		}
		db.roster.byID[s.ID] = len(db.roster.rows)
		db.roster.rows = append(db.roster.rows, s)
	}
}

// AddMarks records marks under their StudentID; marks without one are dropped.
func (db *DB) AddMarks(marks ...progress.Mark) {
	db.marks.Lock()
	defer db.marks.Unlock()

	for _, m := range marks {
		if m.StudentID == "" {
			continue
		}
		db.marks.table[m.StudentID] = append(db.marks.table[m.StudentID], m)
	}
}

// SetClassExams sets the exam timeline served for class instead of the one derived from marks.
func (db *DB) SetClassExams(class string, exams []progress.ClassExam) {
	db.exams.Lock()
	defer db.exams.Unlock()
	db.exams.table[classKey(class)] = append([]progress.ClassExam(nil), exams...)
}

func classKey(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}
