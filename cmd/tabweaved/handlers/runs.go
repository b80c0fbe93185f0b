package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierr "github.com/tabweave/tabweave/pkg/api/types/errors"
	apiruns "github.com/tabweave/tabweave/pkg/api/types/runs"
	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/run"
	"github.com/tabweave/tabweave/pkg/utils/slices"
)

// FindRunHandler lists runs in chronological order, oldest first.
//
// The "status" query parameter narrows the listing; it takes a
// comma-separated set of status names.
func FindRunHandler(runs run.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		query := run.FindQuery{}
		if param := c.QueryParam("status"); param != "" {
			statuses, err := slices.MapUntilError(
				strings.Split(param, ","), domain.AsRunStatus,
			)
			if err != nil {
				return apierr.BadRequest(
					`each "status" should be one of: ingesting, validating, transforming, training, persisting, done, failed`,
					err,
				)
			}
			query.Status = statuses
		}

		found, err := runs.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		c.JSON(http.StatusOK, slices.Map(found, apiruns.ComposeSummary))

		return nil
	}
}

// GetRunHandler shows a single run in detail.
func GetRunHandler(runs run.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		runId := c.Param("runId")
		if runId == "" {
			return apierr.BadRequest(`"runId" is required`, nil)
		}

		r, err := runs.Get(ctx, runId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound(apierr.WithError(err))
			}
			return apierr.InternalServerError(err)
		}

		c.JSON(http.StatusOK, apiruns.ComposeDetail(*r))

		return nil
	}
}
