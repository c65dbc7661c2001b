package bridge

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/efebarandurmaz/fraytypes/internal/plugins"
	"github.com/efebarandurmaz/fraytypes/internal/server"
	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	health := server.NewHealthServer(&server.HealthConfig{Version: "test"})
	health.SetReady(true)
	return New(Options{
		Plugin: plugins.New(plugins.Options{Version: "test", Logger: quietLogger()}),
		Health: health,
		Logger: quietLogger(),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func TestServer_Manifest(t *testing.T) {
	w := do(t, newTestServer(t).Handler(), http.MethodGet, "/v1/manifest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	m := decode[plugins.Manifest](t, w)
	if m.Type != plugins.PluginType || m.Version != "test" {
		t.Fatalf("unexpected manifest %+v", m)
	}
}

func TestServer_Defaults(t *testing.T) {
	w := do(t, newTestServer(t).Handler(), http.MethodGet, "/v1/settings/defaults", "")
	got := decode[map[string]any](t, w)
	if got[settings.KeyFrameScripts] != true || got[settings.KeyScriptAssets] != true {
		t.Fatalf("expected both scopes enabled, got %v", got)
	}
	if got[settings.KeyVersion] != "test" {
		t.Fatalf("expected the plugin version, got %v", got[settings.KeyVersion])
	}
}

func TestServer_Typedefs(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  int
		empty bool
	}{
		{
			name: "character frame script",
			body: `{"scriptingLanguage":"hscript","metadata":{"objectType":"CHARACTER"}}`,
			code: http.StatusOK,
		},
		{
			name:  "suppressed by extension",
			body:  `{"filename":"readme.md","scriptingLanguage":"hscript"}`,
			code:  http.StatusOK,
			empty: true,
		},
		{
			name: "malformed settings",
			body: `{"settings":{"frameScriptEnabled":"yes"}}`,
			code: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			body: `{"filename":`,
			code: http.StatusBadRequest,
		},
	}

	h := newTestServer(t).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/typedefs", tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				if e := decode[ErrorPayload](t, w); e.Code != CodeInvalidArgument {
					t.Fatalf("expected invalid_argument, got %+v", e)
				}
				return
			}
			out := decode[DefinitionsPayload](t, w)
			if out.Definitions == nil {
				t.Fatal("definitions must be an array, not null")
			}
			if tt.empty {
				if len(out.Definitions) != 0 {
					t.Fatalf("got %d definitions, want none", len(out.Definitions))
				}
				return
			}
			if len(out.Definitions) != 1 || out.Definitions[0].Filename != typedefs.OutputFilename {
				t.Fatalf("want one %s definition, got %+v", typedefs.OutputFilename, out.Definitions)
			}
		})
	}
}

func TestServer_TypedefsRequiresJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/typedefs", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}

func TestServer_Migrate(t *testing.T) {
	w := do(t, newTestServer(t).Handler(), http.MethodPost, "/v1/settings/migrate",
		`{"settings":{"version":"0.1.0","frameScriptEnabled":false,"scriptAssetEnabled":false,"extensions":[".hx","hsx"],"languages":["hscript"]}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[settings.Settings](t, w)
	if got.FrameScriptEnabled || got.ScriptAssetEnabled {
		t.Fatalf("stored scope flags lost: %+v", got)
	}
	if strings.Join(got.Extensions, ",") != "hx,hsx" {
		t.Fatalf("extensions = %v", got.Extensions)
	}
	if got.Version != "test" {
		t.Fatalf("version = %q", got.Version)
	}
}

func TestServer_SettingsReplaceByDefault(t *testing.T) {
	w := do(t, newTestServer(t).Handler(), http.MethodPost, "/v1/settings",
		`{"settings":{"frameScriptEnabled":false,"scriptAssetEnabled":true,"extensions":["hx"],"languages":["hscript"]}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[settings.Settings](t, w); got.FrameScriptEnabled {
		t.Fatal("expected frame scripts disabled")
	}
}

func TestServer_SettingsUnknownAction(t *testing.T) {
	w := do(t, newTestServer(t).Handler(), http.MethodPost, "/v1/settings", `{"action":"explode"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	w := do(t, newTestServer(t).Handler(), http.MethodPost, "/v1/manifest", "{}")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestServer_MetricsAndHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	do(t, h, http.MethodPost, "/v1/typedefs", `{}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), "fraytypes_requests_total 1") {
		t.Fatalf("metrics missing request count:\n%s", w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", w.Code)
	}
}

func TestServer_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Logger: quietLogger(), AccessLog: &buf})
	do(t, s.Handler(), http.MethodGet, "/v1/manifest", "")
	if !strings.Contains(buf.String(), "GET /v1/manifest") {
		t.Fatalf("expected access log line, got %q", buf.String())
	}
}
