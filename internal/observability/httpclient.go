package observability

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns an http.Client instrumented with otelhttp transport,
// used for every outbound call named in the ambient stack: tool backends,
// the LLM collaborator, and the embedding endpoint.
func NewHTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	base.Transport = otelhttp.NewTransport(rt)
	return base
}

type headerRoundTripper struct {
	next    http.RoundTripper
	headers map[string]string
}

func (h headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	for k, v := range h.headers {
		if cloned.Header.Get(k) == "" {
			cloned.Header.Set(k, v)
		}
	}
	return h.next.RoundTrip(cloned)
}

// WithHeaders returns a client that injects headers into every request that
// doesn't already set them, so fixed headers need not be set at every call
// site.
func WithHeaders(base *http.Client, headers map[string]string) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	base.Transport = headerRoundTripper{next: rt, headers: headers}
	return base
}
