package progress

import (
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/maendeleo/core"
)

var preschoolClasses = map[string]int{"prekg": 0, "lkg": 1, "ukg": 2}

const (
	preschoolCount = 3 // entries in preschoolClasses
	firstGrade     = 1
	lastGrade      = 12
	// UnknownClassRank is the rank of any class name outside PreKG, LKG, UKG, 1..12.
	UnknownClassRank = preschoolCount + lastGrade
)

// ClassRank maps a class name to its position in PreKG < LKG < UKG < 1 < 2 < ... < 12.
// Matching is case-insensitive and ignores surrounding whitespace.
func ClassRank(class string) int {
	name := strings.ToLower(strings.TrimSpace(class))
	if r, ok := preschoolClasses[name]; ok {
		return r
	}
	if n, err := strconv.Atoi(name); err == nil && n >= firstGrade && n <= lastGrade && name == strconv.Itoa(n) {
		return preschoolCount + n - 1
	}
	return UnknownClassRank
}

// IsKnownClass reports whether class has a place in the class order.
func IsKnownClass(class string) bool {
	return ClassRank(class) != UnknownClassRank
}

// CompareClasses returns -1, 0 or 1. Unknown classes compare equal to each other.
func CompareClasses(a, b string) int {
	return compareInts(ClassRank(a), ClassRank(b))
}

// SortClasses sorts class names in place; unknown names keep their input order, after known ones.
func SortClasses(classes []string) {
	sort.SliceStable(classes, func(i, j int) bool { return ClassRank(classes[i]) < ClassRank(classes[j]) })
}

// SortStudents sorts students in place by class order, then section, keeping input order otherwise.
func SortStudents(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		if c := CompareClasses(students[i].Class, students[j].Class); c != 0 {
			return c < 0
		}
		return strings.ToLower(students[i].Section) < strings.ToLower(students[j].Section)
	})
}

// GroupClasses lists every class of the roster with its sections, in class order.
// Sections keep the order in which they first appear.
func GroupClasses(students []Student) []ClassSections {
	index := make(map[string]int)
	groups := make([]ClassSections, 0)
	for _, s := range students {
		class := core.CleanString(s.Class)
		i, ok := index[class]
		if !ok {
			i = len(groups)
			index[class] = i
			groups = append(groups, ClassSections{Class: class, Sections: []string{}})
		}
		section := core.CleanString(s.Section)
		if section != "" && !containsString(groups[i].Sections, section) {
			groups[i].Sections = append(groups[i].Sections, section)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return ClassRank(groups[i].Class) < ClassRank(groups[j].Class) })
	return groups
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
