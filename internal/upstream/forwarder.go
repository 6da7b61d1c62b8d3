// Package upstream performs the outbound half of the BFF auth proxy: it
// forwards credential operations to the identity service and classifies
// whatever comes back so handlers only ever deal with one failure shape.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stayhub/backend/internal/logging"
)

// RawLimit bounds how much of an unparsable upstream body is retained for
// diagnosis.
const RawLimit = 200

// Request describes a single call to be forwarded upstream.
type Request struct {
	Method        string
	Suffix        string
	Body          []byte
	Authorization string
}

// Reply is the classified outcome of a completed upstream call. Exactly one of
// JSON or Raw is populated: JSON holds the verbatim body when it parsed, Raw
// holds a truncated prefix when it did not.
type Reply struct {
	Status int
	JSON   json.RawMessage
	Raw    string
}

// Malformed reports whether the upstream responded with a body that is not
// valid JSON.
func (r Reply) Malformed() bool {
	return r.JSON == nil
}

// Forwarder issues calls against a fixed upstream base URL.
type Forwarder struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// New constructs a Forwarder targeting the provided base URL. The timeout
// bounds each upstream call so a hung identity service cannot hang the proxy.
func New(baseURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Forwarder{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Forward issues the upstream call and classifies the response. A returned
// error means the call never produced a response (transport failure); every
// completed response, malformed or not, comes back as a Reply.
func (f *Forwarder) Forward(ctx context.Context, freq Request) (Reply, error) {
	ctx, span := logging.StartSpan(ctx, "upstream.forward")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body io.Reader
	if len(freq.Body) > 0 {
		body = bytes.NewReader(freq.Body)
	}

	req, err := http.NewRequestWithContext(ctx, freq.Method, f.baseURL+freq.Suffix, body)
	if err != nil {
		return Reply{}, fmt.Errorf("build upstream request: %w", err)
	}
	if len(freq.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if freq.Authorization != "" {
		req.Header.Set("Authorization", freq.Authorization)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := f.client.Do(req)
	if err != nil {
		logging.FromContext(ctx).Warn("upstream call failed", "suffix", freq.Suffix, "error", err)
		return Reply{}, fmt.Errorf("call upstream %s: %w", freq.Suffix, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read upstream response: %w", err)
	}

	if json.Valid(raw) {
		return Reply{Status: resp.StatusCode, JSON: raw}, nil
	}

	logging.FromContext(ctx).Warn("upstream returned non-JSON body",
		"suffix", freq.Suffix, "status", resp.StatusCode, "bytes", len(raw))
	return Reply{Status: resp.StatusCode, Raw: Truncate(string(raw))}, nil
}

// Truncate returns at most RawLimit characters of s.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= RawLimit {
		return s
	}
	return string(runes[:RawLimit])
}
