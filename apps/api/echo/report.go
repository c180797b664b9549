package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/report"
)

type reportApi struct {
	svc      report.ServiceInterface
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, svc report.ServiceInterface, validate *validator.Validate) {
	api := reportApi{svc: svc, validate: validate}

	rg := g.Group("/reports/class")
	rg.GET("", api.cachedClass)
	rg.POST("", api.generateClass)
	rg.POST("/email", api.emailClass)

	g.GET("/students/:id/report", api.cachedStudent)
	g.POST("/students/:id/report", api.generateStudent)

	g.POST("/chat", api.chat)
}

type (
	ChatRequest struct {
		History []report.ChatMessage `json:"history" validate:"dive"`
		Message string               `json:"message" validate:"notblank"`
	}

	ChatResponse struct {
		Reply   string               `json:"reply"`
		History []report.ChatMessage `json:"history"`
	}
)

// Handlers

func (api *reportApi) cachedClass(ctx echo.Context) error {
	rep, err := api.svc.CachedClassReport(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) generateClass(ctx echo.Context) error {
	rep, err := api.svc.GenerateClassReport(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "generating class report")
	}
	return ctx.JSON(http.StatusCreated, rep)
}

func (api *reportApi) emailClass(ctx echo.Context) error {
	rep, err := api.svc.CachedClassReport(ctx.Request().Context())
	if err != nil {
		return err
	}
	if err = api.svc.EmailClassReport(rep); err != nil {
		return errors.Wrap(err, "emailing class report")
	}
	return ctx.NoContent(http.StatusAccepted)
}

func (api *reportApi) cachedStudent(ctx echo.Context) error {
	rep, err := api.svc.CachedStudentReport(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) generateStudent(ctx echo.Context) error {
	rep, err := api.svc.GenerateStudentReport(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "generating student report")
	}
	return ctx.JSON(http.StatusCreated, rep)
}

// chat is stateless: the client sends the history back on every call.
func (api *reportApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	reply, err := api.svc.Chat(ctx.Request().Context(), data.History, data.Message)
	if err != nil {
		return errors.Wrap(err, "chatting")
	}
	history := append(data.History,
		report.ChatMessage{Role: report.RoleUser, Content: data.Message},
		report.ChatMessage{Role: report.RoleModel, Content: reply},
	)
	return ctx.JSON(http.StatusOK, ChatResponse{Reply: reply, History: history})
}
