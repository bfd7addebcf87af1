package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
)

// Comparison kinds accepted by POST /compare
const (
	KindSubject  = "subject"
	KindTimeline = "timeline"
	KindCohort   = "cohort"
)

type progressApi struct {
	svc      *progress.Service
	validate *validator.Validate
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *progress.Service, validate *validator.Validate) {
	api := progressApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/progress", jwt)

	// stateless engine endpoints: the caller supplies the data
	pg.POST("/summary", api.summarize, staffMiddleware())
	pg.POST("/compare", api.compare, staffMiddleware())
	pg.POST("/timeline", api.labelTimeline, staffMiddleware())

	// class endpoints
	pg.GET("/classes", api.queryClasses, staffMiddleware())
	cg := pg.Group("/classes/:class", staffMiddleware())
	cg.GET("/summary", api.classSummary)
	cg.GET("/timeline", api.classTimeline)
	cg.GET("/sections/compare", api.compareSections)

	// student endpoints
	pg.GET("/students/compare", api.compareStudents, selfOrStaffMiddleware(func(ctx echo.Context) []string {
		return []string{ctx.QueryParam("a"), ctx.QueryParam("b")}
	}))
	pg.GET("/students/:id", api.retrieveStudent, selfOrStaffMiddleware(func(ctx echo.Context) []string {
		return []string{ctx.Param("id")}
	}))
}

// Handlers

func (api *progressApi) summarize(ctx echo.Context) error {
	var data SummaryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SummaryRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cohort := data.Cohort()
	marks := make(map[string][]progress.Mark, len(data.MarksByStudent))
	for id, rows := range data.MarksByStudent {
		id = core.CleanString(id)
		ms := progress.NormalizeMarks(rows)
		for i := range ms {
			ms[i].StudentID = id
		}
		marks[id] = append(marks[id], ms...)
	}
	return ctx.JSON(http.StatusOK, progress.Summarize(cohort, marks))
}

func (api *progressApi) compare(ctx echo.Context) error {
	var data CompareRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompareRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a := progress.Entity{Label: data.LabelA, Points: data.SeriesA}
	var b *progress.Entity
	if data.SeriesB != nil {
		b = &progress.Entity{Label: data.LabelB, Points: data.SeriesB}
	}

	var merged progress.MergedSeries
	switch data.Kind {
	case KindSubject:
		merged = progress.MergeSubjects(a, b)
	case KindTimeline:
		merged = progress.MergeTimelines(a, b)
	case KindCohort:
		merged = progress.MergeCohorts(a, b)
	}
	return ctx.JSON(http.StatusOK, merged)
}

func (api *progressApi) labelTimeline(ctx echo.Context) error {
	var data TimelineRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TimelineRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, progress.ClassTimeline(progress.NormalizeClassExams(data.ClassExams)))
}

func (api *progressApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.Classes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *progressApi) classSummary(ctx echo.Context) error {
	ordering := new(Ordering)
	if err := ordering.Bind(ctx); err != nil {
		return err
	}

	filter := progress.CohortFilter{
		Class:   core.CleanString(ctx.Param("class")),
		Section: core.CleanString(ctx.QueryParam("section")),
	}
	report, err := api.svc.Cohort(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing cohort")
	}
	report.Students = progress.OrderSummaries(report.Students, ordering.Orderings)
	return ctx.JSON(http.StatusOK, report)
}

func (api *progressApi) classTimeline(ctx echo.Context) error {
	timeline, err := api.svc.ClassTimeline(ctx.Request().Context(), core.CleanString(ctx.Param("class")))
	if err != nil {
		return errors.Wrap(err, "labelling class timeline")
	}
	return ctx.JSON(http.StatusOK, timeline)
}

func (api *progressApi) compareSections(ctx echo.Context) error {
	var query PairQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to PairQuery")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	cmp, err := api.svc.CompareSections(ctx.Request().Context(), core.CleanString(ctx.Param("class")), query.A, query.B)
	if err != nil {
		return errors.Wrap(err, "comparing sections")
	}
	return ctx.JSON(http.StatusOK, cmp)
}

func (api *progressApi) retrieveStudent(ctx echo.Context) error {
	sp, err := api.svc.Student(ctx.Request().Context(), core.CleanString(ctx.Param("id")))
	if err != nil {
		return errors.Wrap(err, "retrieving student progress")
	}
	return ctx.JSON(http.StatusOK, sp)
}

func (api *progressApi) compareStudents(ctx echo.Context) error {
	var query PairQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to PairQuery")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	cmp, err := api.svc.CompareStudents(ctx.Request().Context(), query.A, query.B)
	if err != nil {
		return errors.Wrap(err, "comparing students")
	}
	return ctx.JSON(http.StatusOK, cmp)
}

type (
	// SummaryRequest carries a cohort either as roster rows or as bare ids, plus the raw marks per student.
	SummaryRequest struct {
		Students       []progress.RawRecord            `json:"students"`
		StudentIDs     []string                        `json:"studentIds" validate:"omitempty,dive,notblank"`
		MarksByStudent map[string][]progress.RawRecord `json:"marksByStudent"`
	}

	CompareRequest struct {
		Kind    string           `json:"kind" validate:"required,oneof=subject timeline cohort"`
		SeriesA []progress.Point `json:"seriesA" validate:"required"`
		SeriesB []progress.Point `json:"seriesB"`
		LabelA  string           `json:"labelA"`
		LabelB  string           `json:"labelB"`
	}

	TimelineRequest struct {
		ClassExams []progress.RawRecord `json:"classExams" validate:"required"`
	}

	// PairQuery selects one or two entities: `?a=...&b=...`.
	PairQuery struct {
		A string `query:"a" validate:"notblank"`
		B string `query:"b"`
	}
)

func (sr *SummaryRequest) Validate(validate *validator.Validate) error {
	if err := validate.Struct(sr); err != nil {
		return err
	}
	if sr.Students == nil && sr.StudentIDs == nil {
		return core.NewValidationError(nil, core.FieldError{
			Field: "students",
			Error: "this field is required when studentIds is missing",
		})
	}
	return nil
}

// Cohort returns the roster rows, or students made from the bare ids.
func (sr *SummaryRequest) Cohort() []progress.Student {
	if sr.Students != nil {
		return progress.NormalizeStudents(sr.Students)
	}
	cohort := make([]progress.Student, 0, len(sr.StudentIDs))
	for _, id := range sr.StudentIDs {
		cohort = append(cohort, progress.Student{ID: core.CleanString(id)})
	}
	return cohort
}

func (cr *CompareRequest) Validate(validate *validator.Validate) error {
	cr.Kind = core.CleanString(cr.Kind, true /* lower */)
	return validate.Struct(cr)
}

func (pq *PairQuery) Validate(validate *validator.Validate) error {
	pq.A = core.CleanString(pq.A)
	pq.B = core.CleanString(pq.B)
	return validate.Struct(pq)
}
