package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/roster"
)

type rosterApi struct {
	svc roster.ServiceInterface
}

func registerRosterAPI(g *echo.Group, svc roster.ServiceInterface) {
	api := rosterApi{svc: svc}

	g.GET("/snapshot", api.snapshot)
	g.GET("/sync/status", api.status)
	g.POST("/sync", api.sync)

	g.GET("/stats", api.stats)
	g.GET("/tests", api.tests)
	g.GET("/rankings", api.rankings)

	sg := g.Group("/students")
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
}

type SyncResponse struct {
	RunID        string          `json:"runId"`
	LastSyncedAt *time.Time      `json:"lastSyncedAt"`
	Students     int             `json:"students"`
	Tests        int             `json:"tests"`
	Attendance   int             `json:"attendance"`
	Warnings     []string        `json:"warnings"`
	Orphans      []roster.Orphan `json:"orphans"`
	DurationMs   int64           `json:"durationMs"`
}

// Handlers

func (api *rosterApi) snapshot(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Snapshot())
}

func (api *rosterApi) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Status())
}

func (api *rosterApi) sync(ctx echo.Context) error {
	res, err := api.svc.Sync(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "syncing roster")
	}

	warnings, orphans := res.Warnings, res.Orphans
	if warnings == nil {
		warnings = []string{}
	}
	if orphans == nil {
		orphans = []roster.Orphan{}
	}
	return ctx.JSON(http.StatusOK, SyncResponse{
		RunID:        res.RunID,
		LastSyncedAt: res.Snapshot.LastSyncedAt,
		Students:     len(res.Snapshot.Students),
		Tests:        len(res.Snapshot.Tests),
		Attendance:   len(res.Snapshot.Attendance),
		Warnings:     warnings,
		Orphans:      orphans,
		DurationMs:   res.Duration.Milliseconds(),
	})
}

func (api *rosterApi) stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, roster.Stats(api.svc.Snapshot()))
}

func (api *rosterApi) tests(ctx echo.Context) error {
	var p Pagination
	if err := p.Bind(ctx, defaultPerPage); err != nil {
		return err
	}
	ranked := roster.Rankings(api.svc.Snapshot().Tests)
	return ctx.JSON(http.StatusOK, roster.Paginate(ranked, p.Page, p.PerPage))
}

func (api *rosterApi) rankings(ctx echo.Context) error {
	var p Pagination
	if err := p.Bind(ctx, roster.RankingsPerPage); err != nil {
		return err
	}
	ranked := roster.Rankings(api.svc.Snapshot().Tests)
	return ctx.JSON(http.StatusOK, roster.Paginate(ranked, p.Page, p.PerPage))
}

func (api *rosterApi) queryStudents(ctx echo.Context) error {
	var p Pagination
	if err := p.Bind(ctx, defaultPerPage); err != nil {
		return err
	}
	students := roster.SearchStudents(api.svc.Snapshot().Students, ctx.QueryParam("search"))
	return ctx.JSON(http.StatusOK, roster.Paginate(students, p.Page, p.PerPage))
}

func (api *rosterApi) retrieveStudent(ctx echo.Context) error {
	detail, err := roster.Detail(api.svc.Snapshot(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}
