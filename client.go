package rangedl

import (
	"net"
	"net/http"
	"time"

	"github.com/brindlecore/rangedl/internal/netutil"
)

// defaultClient returns an *http.Client whose dialer rejects private/loopback
// targets unless RANGEDL_ALLOW_PRIVATE_IPS=true.
func defaultClient() *http.Client {
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	transport := &http.Transport{
		DialContext:           netutil.SafeDialContext(dialer),
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
