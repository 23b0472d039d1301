package generator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/field"
	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/options"
	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/testsupport"
)

type countingLoader struct {
	calls atomic.Int32
	doc   schema.Document
	err   error
}

func (l *countingLoader) Load(context.Context, schema.Source) (schema.Document, error) {
	l.calls.Add(1)
	return l.doc, l.err
}

func TestLoadSchema_FetchesOnce(t *testing.T) {
	t.Parallel()

	stub := &countingLoader{doc: testsupport.PeopleDocument(t)}
	gen := generator.New(
		generator.WithSource(schema.SourceFromFile("people.json")),
		generator.WithLoader(stub),
	)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gen.LoadSchema(testsupport.Context()); err != nil {
				t.Errorf("load schema: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := stub.calls.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	if _, ok := gen.Registry().Lookup("Person"); !ok {
		t.Fatalf("Person not registered")
	}
}

func TestLoadSchema_MemoizesFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	stub := &countingLoader{err: boom}
	gen := generator.New(
		generator.WithSource(schema.SourceFromFile("people.json")),
		generator.WithLoader(stub),
	)

	for i := 0; i < 2; i++ {
		if err := gen.LoadSchema(testsupport.Context()); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected boom, got %v", i, err)
		}
	}
	if got := stub.calls.Load(); got != 1 {
		t.Fatalf("failed fetch must not be retried, got %d calls", got)
	}
	if _, err := gen.Build(testsupport.Context(), nil, "Person"); !errors.Is(err, boom) {
		t.Fatalf("build should surface the load failure, got %v", err)
	}
}

func TestLoadSchema_RequiresSource(t *testing.T) {
	t.Parallel()

	gen := generator.New()
	if err := gen.LoadSchema(testsupport.Context()); err == nil {
		t.Fatalf("expected an error without source or document")
	}
}

func TestLoadSchema_FromFileSystem(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{testsupport.PeopleFixture: {Data: testsupport.PeopleSchema()}}
	gen := generator.New(
		generator.WithSource(schema.SourceFromFS(testsupport.PeopleFixture)),
		generator.WithLoaderOptions(schema.LoaderOptions{FileSystem: files}),
	)

	form, err := gen.BuildOne(testsupport.Context(), nil, "Address")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := len(form.Nodes()); got != 3 {
		t.Fatalf("expected 3 root nodes, got %d", got)
	}
}

func TestLoadSchema_KeepsConfigErrorsNonFatal(t *testing.T) {
	t.Parallel()

	doc := schema.Document{Data: []schema.SerializedStructure{{
		TypeName: "Pet",
		Subfields: []schema.SerializedSubfield{
			{Name: "pet", Type: "text"},
			{Name: "owner", Type: "Missing"},
			{Name: "nickname", Type: "text"},
		},
	}}}
	gen := generator.New(generator.WithDocument(doc))

	if err := gen.LoadSchema(testsupport.Context()); err != nil {
		t.Fatalf("configuration problems must not fail the load: %v", err)
	}
	if !errors.Is(gen.ConfigErrors(), schema.ErrUnresolvedType) {
		t.Fatalf("expected ErrUnresolvedType, got %v", gen.ConfigErrors())
	}

	form, err := gen.BuildOne(testsupport.Context(), nil, "Pet")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var names []string
	for _, node := range form.Nodes() {
		names = append(names, node.Name())
	}
	if diff := cmp.Diff([]string{"pet", "nickname"}, names); diff != "" {
		t.Fatalf("root nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SkipsUnknownTypes(t *testing.T) {
	t.Parallel()

	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	forms, err := gen.Build(testsupport.Context(), nil, "Person", "Nope", "Team")
	if !errors.Is(err, generator.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if len(forms) != 2 || forms[0].TypeName != "Person" || forms[1].TypeName != "Team" {
		t.Fatalf("unexpected forms %+v", forms)
	}
	if got := len(gen.Tree().Body().Children()); got != 2 {
		t.Fatalf("expected two form containers, got %d", got)
	}
}

func TestForm_FillAndData(t *testing.T) {
	t.Parallel()

	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	form, err := gen.BuildOne(testsupport.Context(), nil, "Person")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	form.Fill(map[string]any{
		"person": "Ada",
		"born":   "1815-12-10",
		"height": 1.65,
		"active": true,
		"tags":   []any{"math", "poetry"},
		"address": map[string]any{
			"address": "Home",
			"street":  "St James's Square",
			"city":    "London",
		},
		"unknown": "ignored",
	})

	want := map[string]any{
		"person":   "Ada",
		"born":     "1815-12-10",
		"height":   1.65,
		"active":   true,
		"homepage": "",
		"tags":     []any{"math", "poetry"},
		"address": map[string]any{
			"address": "Home",
			"street":  "St James's Square",
			"city":    "London",
		},
		"employer": "",
		"manager":  "",
	}
	if diff := cmp.Diff(want, form.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	street, ok := form.Lookup("address.street")
	if !ok || street.FieldData() != "St James's Square" {
		t.Fatalf("lookup address.street failed")
	}
	tag, ok := form.Lookup("tags.1")
	if !ok || tag.FieldData() != "poetry" {
		t.Fatalf("lookup tags.1 failed")
	}
	if _, ok := form.Lookup("missing"); ok {
		t.Fatalf("unknown root should not resolve")
	}
}

func TestForm_ReferenceOptionsOverHTTP(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	router := chi.NewRouter()
	router.Get("/options/{source}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if chi.URLParam(r, "source") != "organisations" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"acme","name":"Acme"},{"id":"initech","name":"Initech"}]`))
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	gen := generator.New(
		generator.WithDocument(testsupport.PeopleDocument(t)),
		generator.WithOptionResolver(options.NewResolver(options.WithBaseURL(srv.URL+"/options"))),
	)
	forms, err := gen.Build(testsupport.Context(), nil, "Person", "Person")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	forms[0].Fill(map[string]any{"employer": map[string]any{"id": "initech", "name": "Initech"}})
	gen.Tree().Loop().Flush()

	want := map[string]any{"id": "initech", "name": "Initech"}
	if diff := cmp.Diff(any(want), forms[0].Data()["employer"]); diff != "" {
		t.Fatalf("employer mismatch (-want +got):\n%s", diff)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("option source should be fetched once across forms, got %d", got)
	}
}

func TestForm_ValidityAndWarnings(t *testing.T) {
	t.Parallel()

	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	form, err := gen.BuildOne(testsupport.Context(), nil, "Person")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := []generator.Issue{{Field: "person", Level: "MANDATORY", Message: dom.MessageValueMissing}}
	if diff := cmp.Diff(want, form.Issues()); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if form.Valid() {
		t.Fatalf("blank mandatory field should invalidate the form")
	}

	form.RevealWarnings()
	person, _ := form.Node("person")
	if !person.(*field.Field).Control().HasClass(requirement.ClassMandatory) {
		t.Fatalf("expected mandatory warning")
	}

	form.Fill(map[string]any{"person": "Ada"})
	if !form.Valid() {
		t.Fatalf("form should be valid: %+v", form.Issues())
	}
}

func TestForm_MandatoryMultiGroup(t *testing.T) {
	t.Parallel()

	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	form, err := gen.BuildOne(testsupport.Context(), nil, "Team")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	form.Fill(map[string]any{"team": "Analytical", "members": []any{"", ""}})
	if form.Valid() {
		t.Fatalf("blank member rows should not satisfy the group")
	}

	form.Fill(map[string]any{"members": []any{"", "Ada"}})
	if !form.Valid() {
		t.Fatalf("one member should satisfy the group: %+v", form.Issues())
	}
	if diff := cmp.Diff([]any{"Ada"}, form.Data()["members"]); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_Destroy(t *testing.T) {
	t.Parallel()

	gen := generator.New(generator.WithDocument(testsupport.PeopleDocument(t)))
	form, err := gen.BuildOne(testsupport.Context(), nil, "Person")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	nodes := form.Nodes()

	form.Destroy()
	form.Destroy()

	if gen.Tree().Body().Count() != 1 {
		t.Fatalf("form container should be gone")
	}
	for _, node := range nodes {
		if !node.Destroyed() {
			t.Fatalf("%s not destroyed", node.Name())
		}
	}
	if got := gen.Tree().Loop().Pending(); got != 0 {
		t.Fatalf("destroy left %d pending tasks", got)
	}
	if len(form.Data()) != 0 || form.Issues() != nil {
		t.Fatalf("destroyed form should be empty")
	}
}
