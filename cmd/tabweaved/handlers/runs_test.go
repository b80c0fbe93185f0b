package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	handlers "github.com/tabweave/tabweave/cmd/tabweaved/handlers"
	httptestutil "github.com/tabweave/tabweave/internal/testutils/http"
	apiruns "github.com/tabweave/tabweave/pkg/api/types/runs"
	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/run"
	mockrun "github.com/tabweave/tabweave/pkg/domain/run/mock"
	"github.com/tabweave/tabweave/pkg/utils/cmp"
	"github.com/tabweave/tabweave/pkg/utils/rfctime"
	"github.com/tabweave/tabweave/pkg/utils/slices"
	"github.com/tabweave/tabweave/pkg/utils/try"
)

func TestFindRunHandler(t *testing.T) {

	t.Run("it lists runs matching the query", func(t *testing.T) {
		type when struct {
			request string
			runs    []domain.Run
		}
		type then struct {
			query run.FindQuery
		}

		updatedAt := try.To(rfctime.ParseRFC3339DateTime(
			"2024-06-10T09:30:00.000+00:00",
		)).OrFatal(t).Time()

		dummyRuns := []domain.Run{
			{
				Id: "20240610T093000.000Z-aaaabbbb", Status: domain.Done,
				UpdatedAt: updatedAt,
				Metrics:   &domain.MetricsReport{Accuracy: 0.9, TestRows: 20},
			},
			{
				Id: "20240610T094500.000Z-ccccdddd", Status: domain.Failed,
				UpdatedAt: updatedAt,
				Exit:      &domain.RunExit{Stage: "training", Message: "fake error"},
			},
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"when it is queried without condition": {
				when{request: "/api/runs", runs: dummyRuns},
				then{query: run.FindQuery{}},
			},
			"when it is queried about status": {
				when{request: "/api/runs?status=done,failed", runs: dummyRuns},
				then{query: run.FindQuery{
					Status: []domain.RunStatus{domain.Done, domain.Failed},
				}},
			},
			"when nothing matches": {
				when{request: "/api/runs?status=training", runs: []domain.Run{}},
				then{query: run.FindQuery{
					Status: []domain.RunStatus{domain.Training},
				}},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockRuns := mockrun.New()
				mockRuns.Impl.Find = func(ctx context.Context, query run.FindQuery) ([]domain.Run, error) {
					return testcase.when.runs, nil
				}

				e := echo.New()
				c, respRec := httptestutil.Get(e, testcase.when.request)

				testee := handlers.FindRunHandler(mockRuns)
				if err := testee(c); err != nil {
					t.Fatalf("handler should not error. error = %v", err)
				}

				if !cmp.SliceEqWith(
					mockRuns.Calls.Find, []run.FindQuery{testcase.then.query},
					func(a, b run.FindQuery) bool {
						return cmp.SliceEq(a.Status, b.Status)
					},
				) {
					t.Errorf("queries passed to Find: %+v", mockRuns.Calls.Find)
				}

				if respRec.Code != http.StatusOK {
					t.Errorf("status code should be 200, but %d", respRec.Code)
				}

				actual := []apiruns.Summary{}
				if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
					t.Fatalf("response is not json. error = %v", err)
				}
				expected := slices.Map(testcase.when.runs, apiruns.ComposeSummary)
				if !cmp.SliceEqWith(actual, expected, apiruns.Summary.Equal) {
					t.Errorf(
						"response body:\n===actual===\n%+v\n===expected===\n%+v",
						actual, expected,
					)
				}
			})
		}
	})

	t.Run("it responds 400 for an unknown status", func(t *testing.T) {
		mockRuns := mockrun.New()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/runs?status=done,sleeping")

		testee := handlers.FindRunHandler(mockRuns)
		err := testee(c)
		if err == nil {
			t.Fatal("handler should error, but not")
		}

		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError. actual = %+v", err)
		}
		if httperr.Code != http.StatusBadRequest {
			t.Errorf("status code should be 400, but %d", httperr.Code)
		}
		if len(mockRuns.Calls.Find) != 0 {
			t.Errorf("Find should not be called, but was")
		}
	})

	t.Run("it responds 500 when the registry fails", func(t *testing.T) {
		mockRuns := mockrun.New()
		mockRuns.Impl.Find = func(ctx context.Context, query run.FindQuery) ([]domain.Run, error) {
			return nil, errors.New("fake error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/runs")

		testee := handlers.FindRunHandler(mockRuns)
		err := testee(c)
		if err == nil {
			t.Fatal("handler should error, but not")
		}

		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError. actual = %+v", err)
		}
		if httperr.Code != http.StatusInternalServerError {
			t.Errorf("status code should be 500, but %d", httperr.Code)
		}
	})
}

func TestGetRunHandler(t *testing.T) {

	t.Run("it shows the run in detail", func(t *testing.T) {
		updatedAt := try.To(rfctime.ParseRFC3339DateTime(
			"2024-06-10T09:30:00.000+00:00",
		)).OrFatal(t).Time()

		stored := domain.Run{
			Id: "20240610T093000.000Z-aaaabbbb", Status: domain.Done,
			UpdatedAt: updatedAt,
			Metrics: &domain.MetricsReport{
				Accuracy: 0.9, Precision: 0.8, Recall: 0.75, F1: 0.7741935483870968,
				TestRows: 20,
			},
		}

		mockRuns := mockrun.New()
		mockRuns.Impl.Get = func(ctx context.Context, runId string) (*domain.Run, error) {
			return &stored, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/runs/20240610T093000.000Z-aaaabbbb")
		c.SetParamNames("runId")
		c.SetParamValues("20240610T093000.000Z-aaaabbbb")

		testee := handlers.GetRunHandler(mockRuns)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. error = %v", err)
		}

		if !cmp.SliceEq(mockRuns.Calls.Get, []string{"20240610T093000.000Z-aaaabbbb"}) {
			t.Errorf("run ids passed to Get: %+v", mockRuns.Calls.Get)
		}
		if respRec.Code != http.StatusOK {
			t.Errorf("status code should be 200, but %d", respRec.Code)
		}

		actual := apiruns.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json. error = %v", err)
		}
		if !actual.Equal(apiruns.ComposeDetail(stored)) {
			t.Errorf(
				"response body:\n===actual===\n%+v\n===expected===\n%+v",
				actual, apiruns.ComposeDetail(stored),
			)
		}
	})

	t.Run("it responds 404 for an unknown run", func(t *testing.T) {
		mockRuns := mockrun.New()
		mockRuns.Impl.Get = func(ctx context.Context, runId string) (*domain.Run, error) {
			return nil, kerr.Of(kerr.ErrMissing, "run %s", runId)
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/runs/no-such-run")
		c.SetParamNames("runId")
		c.SetParamValues("no-such-run")

		testee := handlers.GetRunHandler(mockRuns)
		err := testee(c)
		if err == nil {
			t.Fatal("handler should error, but not")
		}

		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError. actual = %+v", err)
		}
		if httperr.Code != http.StatusNotFound {
			t.Errorf("status code should be 404, but %d", httperr.Code)
		}
	})

	t.Run("it responds 500 when the registry fails", func(t *testing.T) {
		mockRuns := mockrun.New()
		mockRuns.Impl.Get = func(ctx context.Context, runId string) (*domain.Run, error) {
			return nil, errors.New("fake error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/runs/some-run")
		c.SetParamNames("runId")
		c.SetParamValues("some-run")

		testee := handlers.GetRunHandler(mockRuns)
		err := testee(c)
		if err == nil {
			t.Fatal("handler should error, but not")
		}

		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError. actual = %+v", err)
		}
		if httperr.Code != http.StatusInternalServerError {
			t.Errorf("status code should be 500, but %d", httperr.Code)
		}
	})
}
