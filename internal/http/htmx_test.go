package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMX_RequestDetection(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Hx-Request", "true")
	if !IsHTMX(r) {
		t.Fatal("expected IsHTMX true")
	}

	r2 := httptest.NewRequest(http.MethodGet, "/x", nil)
	if IsHTMX(r2) {
		t.Fatal("expected default to false")
	}
}

func TestHTMX_HistoryRestore_WantsFullLayout(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Hx-Request", "true")
	if !WantsPartial(r) {
		t.Fatal("htmx request should want partial")
	}
	r.Header.Set("Hx-History-Restore-Request", "true")
	if WantsPartial(r) {
		t.Fatal("history restore needs the full layout")
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		ct     string
		accept string
		want   bool
	}{
		{name: "json body", ct: "application/json; charset=utf-8", want: true},
		{name: "json accept", accept: "application/json", want: true},
		{name: "browser accept", accept: "text/html,application/xhtml+xml,application/json;q=0.9", want: false},
		{name: "form post", ct: "application/x-www-form-urlencoded", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tt.ct != "" {
				r.Header.Set("Content-Type", tt.ct)
			}
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := WantsJSON(r); got != tt.want {
				t.Fatalf("WantsJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTMX_ResponseHeaders_Setters(t *testing.T) {
	rr := httptest.NewRecorder()
	SetHXRedirect(rr, "/login")
	SetHXTrigger(rr, "saved", map[string]any{"id": "123"})
	res := rr.Result()
	t.Cleanup(func() { _ = res.Body.Close() })
	if got := res.Header.Get("Hx-Redirect"); got != "/login" {
		t.Fatalf("HX-Redirect: %q", got)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Header.Get("Hx-Trigger")), &payload); err != nil {
		t.Fatalf("unmarshal trigger: %v", err)
	}
	if _, ok := payload["saved"]; !ok {
		t.Fatalf("expected 'saved' key in HX-Trigger: %v", payload)
	}
}
