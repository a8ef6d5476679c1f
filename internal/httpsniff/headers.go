// Package httpsniff parses the handful of HTTP response headers the
// downloader cares about, kept separate from the fetch/retry loop itself.
package httpsniff

import (
	"net/http"
	"strconv"
	"strings"
)

// ContentLength extracts and parses the Content-Length header. ok is false
// if the header is absent or not a valid non-negative integer.
func ContentLength(h http.Header) (size int64, ok bool) {
	v := h.Get("Content-Length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// AcceptsByteRanges reports whether the server advertised "bytes" in its
// Accept-Ranges header. This is the sole range-capability signal; a missing
// header means no.
func AcceptsByteRanges(h http.Header) bool {
	for _, tok := range strings.Split(h.Get("Accept-Ranges"), ",") {
		if strings.EqualFold(strings.TrimSpace(tok), "bytes") {
			return true
		}
	}
	return false
}

// RangeHeader formats the Range request header value for an inclusive
// absolute byte window [from, to].
func RangeHeader(from, to int64) string {
	return "bytes=" + strconv.FormatInt(from, 10) + "-" + strconv.FormatInt(to, 10)
}
