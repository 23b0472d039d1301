package options

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

var people = []Option{
	{ID: "1", Name: "Ada Lovelace", Keywords: []string{"mathematician", "analyst"}},
	{ID: "2", Name: "Alan Turing", Keywords: []string{"computing"}},
	{ID: "3", Name: "Grace Hopper", Keywords: []string{"admiral", "compiler"}},
	{ID: "4", Name: "Barbara Liskov", Keywords: []string{"substitution"}},
}

func ids(opts []Option) []string {
	out := make([]string, 0, len(opts))
	for _, opt := range opts {
		out = append(out, opt.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{name: "empty query keeps all", query: "", want: []string{"1", "2", "3", "4"}},
		{name: "name prefix ranks first", query: "a", want: []string{"1", "2", "3"}},
		{name: "keyword prefix", query: "comp", want: []string{"2", "3"}},
		{name: "all tokens required", query: "grace comp", want: []string{"3"}},
		{name: "surname word", query: "lisk", want: []string{"4"}},
		{name: "limit", query: "", limit: 2, want: []string{"1", "2"}},
		{name: "no match", query: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(people, tt.query, tt.limit))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_NamePrefixBeforeKeywordMatch(t *testing.T) {
	opts := []Option{
		{ID: "k", Name: "Zed", Keywords: []string{"admin"}},
		{ID: "n", Name: "Admiral Office"},
	}
	got := ids(Filter(opts, "adm", 0))
	if diff := cmp.Diff([]string{"n", "k"}, got); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSource_DecodesEnvelope(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/people", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("scope") != "all" {
			http.Error(w, "missing scope", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"items":[
			{"pk":7,"title":"Ada","keywords":["math"],"tooltip":"first programmer"},
			{"pk":8},
			{"title":"no id"}
		]}}`))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	source := NewHTTPSource(srv.URL+"/people",
		WithResultsPath("data.items"),
		WithFields("pk", "title"),
		WithParam("scope", "all"),
	)
	got, err := source.Options(context.Background())
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := []Option{
		{ID: "7", Name: "Ada", Keywords: []string{"math"}, Tooltip: "first programmer"},
		{ID: "8", Name: "8", Keywords: nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSource_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).Options(context.Background()); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestHTTPSource_ResultsPath(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/bare", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","name":"Acme"}]`))
	})
	router.Get("/elsewhere", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows":[{"id":"1","name":"Acme"}]}`))
	})
	router.Get("/scalar", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":"nope"}`))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	got, err := NewHTTPSource(srv.URL+"/bare", WithResultsPath("data")).Options(context.Background())
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	if diff := cmp.Diff([]Option{{ID: "1", Name: "Acme"}}, got); diff != "" {
		t.Fatalf("bare array mismatch (-want +got):\n%s", diff)
	}

	for _, path := range []string{"/elsewhere", "/scalar"} {
		_, err := NewHTTPSource(srv.URL+path, WithResultsPath("data")).Options(context.Background())
		if !errors.Is(err, ErrNoResults) {
			t.Fatalf("%s: expected ErrNoResults, got %v", path, err)
		}
	}
}

func TestResolver_DoesNotMemoizeCancellation(t *testing.T) {
	var calls atomic.Int32
	resolver := NewResolver(WithSource("people", SourceFunc(func(ctx context.Context) ([]Option, error) {
		calls.Add(1)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return people, nil
	})))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := resolver.Fetch(cancelled, "people"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	got, err := resolver.Fetch(context.Background(), "people")
	if err != nil {
		t.Fatalf("fetch after cancellation: %v", err)
	}
	if len(got) != len(people) || calls.Load() != 2 {
		t.Fatalf("expected a fresh fetch, got %d rows after %d calls", len(got), calls.Load())
	}
}

func TestResolver_FetchesOncePerSource(t *testing.T) {
	var calls atomic.Int32
	resolver := NewResolver(WithSource("people", SourceFunc(func(context.Context) ([]Option, error) {
		calls.Add(1)
		return people, nil
	})))

	for i := 0; i < 3; i++ {
		got, err := resolver.Fetch(context.Background(), "people")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(got) != len(people) {
			t.Fatalf("expected %d rows, got %d", len(people), len(got))
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single fetch, got %d", calls.Load())
	}

	if _, err := resolver.Fetch(context.Background(), "missing"); err == nil {
		t.Fatalf("expected unknown source error")
	}
}

func TestResolver_BaseURL(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/options/{source}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"` + chi.URLParam(r, "source") + `","name":"row"}]`))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resolver := NewResolver(WithBaseURL(srv.URL + "/options/"))
	got, err := resolver.Fetch(context.Background(), "tags")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if diff := cmp.Diff([]Option{{ID: "tags", Name: "row"}}, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticReturnsCopies(t *testing.T) {
	static := Static{{ID: "a", Name: "A", Keywords: []string{"x"}}}
	got, _ := static.Options(context.Background())
	got[0].Keywords[0] = "mutated"
	if static[0].Keywords[0] != "x" {
		t.Fatalf("static rows were mutated")
	}
	if opt, ok := FindByID(got, "a"); !ok || opt.Name != "A" {
		t.Fatalf("FindByID failed: %+v %v", opt, ok)
	}
}
