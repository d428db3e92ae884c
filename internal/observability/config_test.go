package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterHonorsToggle(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		mux := http.NewServeMux()
		Config{EnablePprof: enabled}.Register(mux)

		resp := httptest.NewRecorder()
		mux.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))

		want := http.StatusNotFound
		if enabled {
			want = http.StatusOK
		}
		if resp.Code != want {
			t.Fatalf("enabled=%v: expected status %d, got %d", enabled, want, resp.Code)
		}
	}
}
