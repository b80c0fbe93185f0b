package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/tabweave/tabweave/pkg/api/types/errors"
	apiruns "github.com/tabweave/tabweave/pkg/api/types/runs"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/pipeline"
)

// TrainHandler triggers one training run.
//
// The run executes within the request; the response carries the run
// identity and its terminal status. An unreachable dataset store
// answers 503; any other failed run answers 500, with the partial run
// identity in the advice so the caller can inspect it.
func TrainHandler(training pipeline.TrainingInterface, invalidate func()) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		r, err := training.Run(ctx)
		if err != nil {
			if errors.Is(err, kerr.ErrUpstreamUnavailable) {
				return apierr.ServiceUnavailable("retry when the dataset store is back", err)
			}
			if r == nil {
				return apierr.InternalServerError(err)
			}
			return apierr.NewErrorMessage(
				http.StatusInternalServerError,
				"training run failed",
				apierr.WithAdvice("inspect run "+r.Id),
				apierr.WithError(err),
			)
		}

		if invalidate != nil {
			invalidate()
		}

		c.JSON(http.StatusOK, apiruns.ComposeDetail(*r))

		return nil
	}
}
