package panel

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandler_Embedded(t *testing.T) {
	h := Handler("")

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		contentType string
		contains    string
	}{
		{"root page", "/", http.StatusOK, "text/html", "Land Area Converter"},
		{"script", "/app.js", http.StatusOK, "javascript", "WebSocket"},
		{"stylesheet", "/style.css", http.StatusOK, "text/css", ".banner"},
		{"page route falls back to index", "/convert", http.StatusOK, "text/html", "<!DOCTYPE html>"},
		{"nested page route", "/a/b/c", http.StatusOK, "text/html", "<!DOCTYPE html>"},
		{"missing asset is 404", "/missing.js", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path)
			if w.Code != tt.wantStatus {
				t.Fatalf("GET %s: status = %d, want %d", tt.path, w.Code, tt.wantStatus)
			}
			if tt.contentType != "" && !strings.Contains(w.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("GET %s: Content-Type = %q, want %s", tt.path, w.Header().Get("Content-Type"), tt.contentType)
			}
			if tt.contains != "" && !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("GET %s: body missing %q", tt.path, tt.contains)
			}
			if got := w.Header().Get("Cache-Control"); got != "no-cache, must-revalidate" {
				t.Errorf("GET %s: Cache-Control = %q", tt.path, got)
			}
		})
	}
}

func TestHandler_PageHasConverterControls(t *testing.T) {
	body := get(t, Handler(""), "/").Body.String()

	for _, id := range []string{"region", "input", "from", "to", "swap", "reset", "output", "banner"} {
		if !strings.Contains(body, `id="`+id+`"`) {
			t.Errorf("index.html missing element #%s", id)
		}
	}
}

func TestHandler_NestedRouteUsesAbsoluteAssets(t *testing.T) {
	body := get(t, Handler(""), "/a/b/c").Body.String()

	for _, ref := range []string{`href="/panel/style.css"`, `src="/panel/app.js"`} {
		if !strings.Contains(body, ref) {
			t.Errorf("nested route page missing %s", ref)
		}
	}
}

func TestHandler_ScriptRestoresFormOnReconnect(t *testing.T) {
	body := get(t, Handler(""), "/app.js").Body.String()

	if !strings.Contains(body, `send("update", {`) || !strings.Contains(body, `input: el("input").value`) {
		t.Error("app.js should resend the form values when the socket reopens")
	}
}

func TestHandler_Directory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": `<!DOCTYPE html><html><body>local panel</body></html>`,
		"dev.js":     "console.log('dev')",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	h := Handler(dir)

	if w := get(t, h, "/"); !strings.Contains(w.Body.String(), "local panel") {
		t.Errorf("GET /: want directory index, got %q", w.Body.String())
	}
	if w := get(t, h, "/dev.js"); w.Code != http.StatusOK {
		t.Errorf("GET /dev.js: status = %d, want 200", w.Code)
	}
	if w := get(t, h, "/app.js"); w.Code != http.StatusNotFound {
		t.Errorf("GET /app.js: status = %d, want 404 (embedded assets not mixed in)", w.Code)
	}
	if w := get(t, h, "/deep/route"); !strings.Contains(w.Body.String(), "local panel") {
		t.Error("page route should fall back to the directory index")
	}
}

func TestHandler_MissingDirectoryUsesEmbedded(t *testing.T) {
	w := get(t, Handler("/nonexistent/panel/dir"), "/")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Land Area Converter") {
		t.Error("missing directory should fall back to the embedded page")
	}
}
