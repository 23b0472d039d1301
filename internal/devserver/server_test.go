package devserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formtree/components/optionrows"
	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/testsupport"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, testsupport.PeopleFixture)
	require.NoError(t, os.WriteFile(schemaPath, testsupport.PeopleSchema(), 0o644))

	optionsDir := filepath.Join(dir, "options")
	require.NoError(t, os.Mkdir(optionsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(optionsDir, "organisations.json"),
		[]byte(`[{"id":"acme","name":"Acme"},{"id":"initech","name":"Initech"}]`), 0o644))

	srv, err := New(Config{SchemaPath: schemaPath, OptionsDir: optionsDir, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func submit(t *testing.T, url, payload string) (int, SubmitResult) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	var result SubmitResult
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusUnprocessableEntity {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	}
	return resp.StatusCode, result
}

func TestRouter_ServesSchemaAndExport(t *testing.T) {
	ts := newTestServer(t)

	status, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, body = get(t, ts.URL+"/schema")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, testsupport.PeopleSchema(), body)

	status, body = get(t, ts.URL+"/openapi.json")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"#/components/schemas/Address"`)
}

func TestRouter_ServesOptionRows(t *testing.T) {
	ts := newTestServer(t)

	status, body := get(t, ts.URL+"/api/options/organisations?q=ini")
	require.Equal(t, http.StatusOK, status)

	var payload optionrows.Response
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "initech", payload.Data[0].ID)

	status, _ = get(t, ts.URL+"/api/options/unknown")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_SubmitValidatesPayload(t *testing.T) {
	ts := newTestServer(t)

	status, result := submit(t, ts.URL+"/forms/Person", `{
		"person": "Ada",
		"employer": {"id": "initech", "name": "Initech"},
		"tags": ["math"]
	}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
	assert.Equal(t, "Ada", result.Data["person"])
	assert.Equal(t, map[string]any{"id": "initech", "name": "Initech"}, result.Data["employer"])

	status, result = submit(t, ts.URL+"/forms/Person", `{"born": "1815-12-10"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, result.Valid)
	assert.Equal(t, []generator.Issue{{Field: "person", Level: "MANDATORY", Message: "Please fill out this field."}}, result.Issues)
}

func TestRouter_SubmitErrors(t *testing.T) {
	ts := newTestServer(t)

	status, _ := submit(t, ts.URL+"/forms/Nope", `{}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = submit(t, ts.URL+"/forms/Person", `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNew_RequiresReadableSchema(t *testing.T) {
	_, err := New(Config{SchemaPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
