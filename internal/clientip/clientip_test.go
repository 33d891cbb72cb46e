package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequest_ForwardedForTakesPriority(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1, 10.0.0.2")
	r.Header.Set("X-Real-IP", "5.6.7.8")
	r.Header.Set("CF-Connecting-IP", "9.9.9.9")

	if got := FromRequest(r); got != "1.2.3.4" {
		t.Errorf("expected first X-Forwarded-For entry, got %q", got)
	}
}

func TestFromRequest_RealIPFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Real-IP", "5.6.7.8")
	r.Header.Set("CF-Connecting-IP", "9.9.9.9")

	if got := FromRequest(r); got != "5.6.7.8" {
		t.Errorf("expected X-Real-IP, got %q", got)
	}
}

func TestFromRequest_CloudflareFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("CF-Connecting-IP", "9.9.9.9")

	if got := FromRequest(r); got != "9.9.9.9" {
		t.Errorf("expected CF-Connecting-IP, got %q", got)
	}
}

func TestFromRequest_UnknownWhenNoHeaders(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)

	if got := FromRequest(r); got != Unknown {
		t.Errorf("expected %q, got %q", Unknown, got)
	}
}

func TestFromRequest_EmptyForwardedForEntry(t *testing.T) {
	// A malformed header with an empty first entry should fall through
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Forwarded-For", " , 10.0.0.1")
	r.Header.Set("X-Real-IP", "5.6.7.8")

	if got := FromRequest(r); got != "5.6.7.8" {
		t.Errorf("expected fallback to X-Real-IP, got %q", got)
	}
}
