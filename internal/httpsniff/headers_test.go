package httpsniff

import (
	"net/http"
	"testing"
)

func TestContentLength(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Length", "12345")
	size, ok := ContentLength(h)
	if !ok || size != 12345 {
		t.Errorf("ContentLength() = %d, %v, want 12345, true", size, ok)
	}

	if _, ok := ContentLength(http.Header{}); ok {
		t.Error("expected ok=false for missing header")
	}

	bad := http.Header{}
	bad.Set("Content-Length", "not-a-number")
	if _, ok := ContentLength(bad); ok {
		t.Error("expected ok=false for non-numeric header")
	}
}

func TestAcceptsByteRanges(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"bytes", true},
		{"bytes, none", true},
		{"none", false},
		{"", false},
		{"BYTES", true},
	}
	for _, c := range cases {
		h := http.Header{}
		if c.value != "" {
			h.Set("Accept-Ranges", c.value)
		}
		if got := AcceptsByteRanges(h); got != c.want {
			t.Errorf("AcceptsByteRanges(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestRangeHeader(t *testing.T) {
	if got := RangeHeader(0, 39999); got != "bytes=0-39999" {
		t.Errorf("RangeHeader(0, 39999) = %q", got)
	}
}
