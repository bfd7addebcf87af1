package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core/progress"
)

var (
	goodColor = color.New(color.FgGreen)
	fairColor = color.New(color.FgYellow)
	poorColor = color.New(color.FgRed)
	headColor = color.New(color.FgCyan, color.Bold)
)

func (cli *commandLine) printJSON(view progress.View) error {
	var v interface{}
	switch view.Selection.Kind {
	case progress.ViewCohort:
		v = view.Cohort
	case progress.ViewStudent:
		v = view.Student
	case progress.ViewStudents:
		v = view.Students
	case progress.ViewSections:
		v = view.Sections
	case progress.ViewTimeline:
		v = view.Timeline
	default:
		v = view.Classes
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cli *commandLine) render(view progress.View) {
	switch {
	case view.Cohort != nil:
		cli.renderCohort(view.Selection, *view.Cohort)
	case view.Student != nil:
		cli.renderStudent(*view.Student)
	case view.Students != nil:
		cli.renderStudent(view.Students.A)
		if view.Students.B != nil {
			cli.renderStudent(*view.Students.B)
		}
		cli.renderMerged("Subjects", view.Students.Subjects)
		cli.renderMerged("Timeline", view.Students.Timeline)
	case view.Sections != nil:
		cli.renderMerged("Rank by rank", view.Sections.Ranks)
		cli.renderMerged("Subjects", view.Sections.Subjects)
	case view.Selection.Kind == progress.ViewTimeline:
		cli.renderTimeline(view.Timeline)
	default:
		cli.renderClasses(view.Classes)
	}
}

func (cli *commandLine) renderClasses(classes []progress.ClassSections) {
	table := cli.newTable("Class", "Sections")
	for _, c := range classes {
		table.Append([]string{c.Class, strings.Join(c.Sections, ", ")})
	}
	table.Render()
}

func (cli *commandLine) renderCohort(sel progress.Selection, report progress.CohortReport) {
	title := "Class " + sel.Class
	if sel.Section != "" {
		title += " / " + sel.Section
	}
	cli.title(title)

	ov := report.Overview
	fmt.Fprintf(cli.out, "Students: %d  With marks: %d  Average: %s\n",
		ov.Students, ov.WithMarks, cli.average(ov.Average))
	if ov.Top != nil {
		fmt.Fprintf(cli.out, "Top: %s (%s)\n", ov.Top.Name, cli.average(ov.Top.Average))
	}

	table := cli.newTable("Rank", "ID", "Name", "Section", "Marks", "Average")
	for _, s := range report.Students {
		table.Append([]string{
			strconv.Itoa(s.Rank), s.StudentID, s.Name, s.Section, strconv.Itoa(s.MarkCount), cli.average(s.Average),
		})
	}
	table.Render()
}

func (cli *commandLine) renderStudent(sp progress.StudentProgress) {
	cli.title(fmt.Sprintf("%s (%s) - class %s %s", sp.Student.Name, sp.Student.ID, sp.Student.Class, sp.Student.Section))
	fmt.Fprintf(cli.out, "Marks: %d  Average: %s\n", sp.Marks, cli.average(sp.Average))

	subjects := cli.newTable("Subject", "Average")
	for _, s := range sp.Subjects {
		subjects.Append([]string{s.Subject, cli.average(null.Float64From(s.Percentage))})
	}
	subjects.Render()

	timeline := cli.newTable("Date", "Average")
	for _, p := range sp.Timeline {
		timeline.Append([]string{p.Date, cli.average(null.Float64From(p.Percentage))})
	}
	timeline.Render()
}

func (cli *commandLine) renderMerged(title string, ms progress.MergedSeries) {
	cli.title(title)
	table := cli.newTable(append([]string{ms.Key}, ms.Series...)...)
	for _, r := range ms.Rows {
		row := make([]string, 0, len(r.Values)+1)
		row = append(row, r.Key)
		for _, v := range r.Values {
			row = append(row, cli.average(v))
		}
		table.Append(row)
	}
	table.Render()
}

func (cli *commandLine) renderTimeline(entries []progress.ClassExamEntry) {
	table := cli.newTable("Exam", "Date", "Max", "Average", "Students")
	for _, e := range entries {
		date := progress.NoDate
		if e.ExamDate.Valid {
			date = e.ExamDate.String
		}
		table.Append([]string{
			e.Label,
			date,
			strconv.FormatFloat(e.MaxMarks, 'f', -1, 64),
			cli.average(null.Float64From(e.AvgPct)),
			strconv.Itoa(e.StudentCount),
		})
	}
	table.Render()
}

func (cli *commandLine) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(cli.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func (cli *commandLine) title(s string) {
	if cli.color {
		s = headColor.Sprint(s)
	}
	fmt.Fprintln(cli.out, s)
}

// average formats a percentage, coloured by band when colours are on.
func (cli *commandLine) average(v null.Float64) string {
	if !v.Valid {
		return "-"
	}
	s := strconv.FormatFloat(v.Float64, 'f', 1, 64)
	if !cli.color {
		return s
	}
	switch {
	case v.Float64 >= 75:
		return goodColor.Sprint(s)
	case v.Float64 >= 50:
		return fairColor.Sprint(s)
	default:
		return poorColor.Sprint(s)
	}
}
