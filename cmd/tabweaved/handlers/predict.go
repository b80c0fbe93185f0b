package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/tabweave/tabweave/pkg/api/types/errors"
	apipred "github.com/tabweave/tabweave/pkg/api/types/predictions"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/pipeline"
)

// PredictHandler scores feature rows against the model of a run.
//
// The run is taken from the "run" query parameter; when absent, the
// latest successful run serves the request.
func PredictHandler(prediction pipeline.PredictionInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		req := apipred.Request{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("malformed prediction request", err)
		}
		if len(req.Rows) == 0 {
			return apierr.BadRequest("prediction request has no rows", nil)
		}

		runId := c.QueryParam("run")

		preds, resolved, err := prediction.Predict(ctx, req.Dataset(), runId)
		if err != nil {
			if errors.Is(err, kerr.ErrArtifactNotFound) {
				return apierr.NotFound(apierr.WithError(err))
			}
			if errors.Is(err, kerr.ErrSchemaMismatch) || errors.Is(err, kerr.ErrTransform) {
				return apierr.BadRequest("rows do not fit the model's schema", err)
			}
			return apierr.InternalServerError(err)
		}

		c.JSON(http.StatusOK, apipred.ComposeResponse(resolved, preds))

		return nil
	}
}
