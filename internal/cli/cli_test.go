package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snow-search/pkg/registry"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`app:
  name: snow-search-test
logging:
  level: error
  format: console
servicenow:
  base_url: %q
  username: svc
  password: secret
  timeout: 5000
`, baseURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExplain_IdentifierQuery(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	out, err := run(t, "--config", cfg, "explain", "show", "me", "CHG0012345")
	require.NoError(t, err)

	var plan map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "change_request", plan["recordType"])
	assert.Equal(t, "identifier", plan["mode"])
	assert.Equal(t, "CHG0012345", plan["identifier"])
}

func TestExplain_UnresolvedType(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	_, err := run(t, "--config", cfg, "explain", "tickets from yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please specify ticket type")
}

func TestSearch_PrintsEnvelope(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("sysparm_query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[{"number":"INC0010001"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "--config", writeConfig(t, srv.URL), "search", "incidents on 2025-03-01", "-n", "3")
	require.NoError(t, err)

	assert.Equal(t, "/api/now/table/incident", gotPath)
	assert.Contains(t, gotQuery, "gs.dateGenerate('2025-03-01','00:00:00')")
	assert.JSONEq(t, `{"success":true,"data":[{"number":"INC0010001"}]}`, out)
}

func TestSearch_FailureExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	out, err := run(t, "--config", writeConfig(t, srv.URL), "search", "open problems")
	assert.ErrorIs(t, err, errSearchFailed)
	assert.JSONEq(t, `{"success":false,"error":"internal error"}`, out)
}

func TestRegistry_DumpAndValidate(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	path := filepath.Join(t.TempDir(), "record-types.json")

	_, err := run(t, "--config", cfg, "registry", "dump", "-o", path)
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.RecordTypes, len(registry.Default().RecordTypes))

	out, err := run(t, "--config", cfg, "registry", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "change_request")
}

func TestRegistry_ValidateRejectsBadFile(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"recordTypes":[]}`), 0o644))

	_, err := run(t, "--config", cfg, "registry", "validate", path)
	assert.ErrorIs(t, err, registry.ErrEmptyRegistry)
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "explain", "incidents")
	assert.Error(t, err)
}
