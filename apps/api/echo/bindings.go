package echoapi

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classboard/core"
)

const (
	pageParam    = "page"
	perPageParam = "per_page"

	defaultPerPage = 10
	maxPerPage     = 100
)

type Pagination struct {
	Page    int
	PerPage int
}

// Bind reads `page` & `per_page` from the query string. Missing values keep their defaults.
func (p *Pagination) Bind(ctx echo.Context, perPage int) error {
	p.Page, p.PerPage = 1, perPage

	var flds []core.FieldError
	parse := func(name string, dst *int, max int) {
		val := ctx.QueryParam(name)
		if val == "" {
			return
		}
		n, err := strconv.Atoi(val)
		switch {
		case err != nil || n < 1:
			flds = append(flds, core.FieldError{Field: name, Error: "must be a positive number"})
			return
		case max > 0 && n > max:
			flds = append(flds, core.FieldError{Field: name, Error: fmt.Sprintf("must be at most %d", max)})
			return
		}
		*dst = n
	}
	parse(pageParam, &p.Page, 0)
	parse(perPageParam, &p.PerPage, maxPerPage)

	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
