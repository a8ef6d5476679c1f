package rangedl

import (
	"os"
	"testing"
)

// TestMain allows the default SSRF-hardened client to dial the loopback
// httptest servers this package's tests spin up.
func TestMain(m *testing.M) {
	os.Setenv("RANGEDL_ALLOW_PRIVATE_IPS", "true")
	os.Exit(m.Run())
}
