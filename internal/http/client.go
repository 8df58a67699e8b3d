package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/logging"
)

// CreateOptimizedClient returns a client tuned for blob store traffic
// (S3, Azure) with the same proxy settings as API calls.
//
// HTTP/2 is attempted unless DISABLE_HTTP2=true or a proxy is active;
// FORCE_HTTP2=true keeps it on behind a proxy. The client has no overall
// timeout; callers bound each operation with a context.
func CreateOptimizedClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	if cfg == nil {
		cfg = config.Defaults()
		cfg.ProxyMode = "system"
	}

	client, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	client.Timeout = 0

	// NTLM wraps the transport; it is returned untouched
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		return client, nil
	}

	tr.MaxIdleConns = 256
	tr.MaxIdleConnsPerHost = 64
	tr.MaxConnsPerHost = 64
	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true") {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}
	return client, nil
}

func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		for _, env := range []string{"HTTP_PROXY", "HTTPS_PROXY", "http_proxy", "https_proxy"} {
			if os.Getenv(env) != "" {
				return true
			}
		}
		return false
	default:
		return cfg.ProxyHost != ""
	}
}
