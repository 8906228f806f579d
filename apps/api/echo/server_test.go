package echoapi_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func Test_server_servesLocalMedia(t *testing.T) {
	app := initApp(t)

	if err := os.WriteFile(filepath.Join(app.mediaRoot, "notes.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	req, rec := newRequest(http.MethodGet, "/media/notes.pdf")
	app.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "%PDF-1.4" {
		t.Errorf("failed! body = %q", rec.Body.String())
	}
}
