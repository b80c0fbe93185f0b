package hook_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tabweave/tabweave/pkg/hook"
	"github.com/tabweave/tabweave/pkg/utils/try"
)

type Value struct {
	Content string `json:"content"`
}

func TestWebHook(t *testing.T) {

	t.Run("it POSTs the value as JSON to each URL", func(t *testing.T) {
		received := []Value{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if ctype := r.Header.Get("Content-Type"); ctype != "application/json" {
				t.Errorf("unexpected content type: %s", ctype)
			}
			var got Value
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			received = append(received, got)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		testee := hook.Web[Value]{
			AfterURL: []*url.URL{try.To(url.Parse(server.URL)).OrFatal(t)},
		}

		if err := testee.After(Value{Content: "run finished"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(received) != 1 || received[0].Content != "run finished" {
			t.Errorf("unexpected payloads: %+v", received)
		}
	})

	t.Run("it fails with ErrHookFailed on a non-2xx response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		testee := hook.Web[Value]{
			BeforeURL: []*url.URL{try.To(url.Parse(server.URL)).OrFatal(t)},
		}

		err := testee.Before(Value{Content: "starting"})
		if !errors.Is(err, hook.ErrHookFailed) {
			t.Errorf("error should be ErrHookFailed: %v", err)
		}
	})

	t.Run("hooks without URLs do nothing", func(t *testing.T) {
		testee := hook.Web[Value]{}
		if err := testee.Before(Value{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := testee.After(Value{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
