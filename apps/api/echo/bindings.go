package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []progress.Ordering
}

// Bind reads `?ordering=name,-average`. Unknown fields are rejected.
func (ord *Ordering) Bind(ctx echo.Context) error {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}
	orderings, err := progress.ParseOrderings(val)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: orderingParam, Error: err.Error()})
	}
	ord.Orderings = orderings
	return nil
}
