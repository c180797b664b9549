package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/settings"
)

type settingsApi struct {
	svc      settings.ServiceInterface
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, svc settings.ServiceInterface, validate *validator.Validate) {
	api := settingsApi{svc: svc, validate: validate}

	g.GET("/config", api.retrieve)
	g.PUT("/config", api.update)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	sc, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting source config")
	}
	return ctx.JSON(http.StatusOK, sc)
}

// update only saves the identifiers; the next sync picks them up.
func (api *settingsApi) update(ctx echo.Context) error {
	var data settings.SourceConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SourceConfig")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	if err := api.svc.Set(rctx, data); err != nil {
		return errors.Wrap(err, "saving source config")
	}
	sc, err := api.svc.Get(rctx)
	if err != nil {
		return errors.Wrap(err, "getting source config")
	}
	return ctx.JSON(http.StatusOK, sc)
}
