package fetchhttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultFilename = "Unnamed"

// Probe issues the metadata HEAD request. HEAD is idempotent, so it rides a
// retrying client; the GET loop cannot, because its resume must be
// offset-aware.
func (e *Engine) Probe(url string) (ResourceDescriptor, error) {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = e.client.Std()
	rc.RetryMax = 3
	if e.policy.MaxAttempts > 0 {
		rc.RetryMax = e.policy.MaxAttempts - 1
	}
	rc.RetryWaitMin = e.policy.WaitMin
	rc.RetryWaitMax = e.policy.WaitMax
	rc.Logger = nil

	req, err := retryablehttp.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return ResourceDescriptor{}, fmt.Errorf("error creating HEAD request: %v", err)
	}
	// Std bypasses the wrapper's header injection, so the probe re-applies
	// the configured headers itself. A header-gated source must see the
	// same headers on the probe as on every GET.
	req.Header.Set("User-Agent", e.client.UserAgent())
	for k, v := range e.client.Headers() {
		req.Header.Set(k, v)
	}
	resp, err := rc.Do(req)
	if err != nil {
		return ResourceDescriptor{}, &TransferError{URL: url, Err: fmt.Errorf("metadata probe failed: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return ResourceDescriptor{}, &TransferError{URL: url, StatusCode: resp.StatusCode}
	}

	desc := ResourceDescriptor{URL: url, Filename: defaultFilename}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size > 0 {
			desc.Size = size
		}
	}
	if name := filenameFromDisposition(resp.Header.Get("Content-Disposition")); name != "" {
		desc.Filename = name
	}
	e.log.Debug().Str("op", "fetch/http").Int64("size", desc.Size).Msgf("probed %s as %q", url, desc.Filename)
	return desc, nil
}

// filenameFromDisposition does a plain filename= split with quote stripping.
// Quoted-pair escapes and RFC 5987 extended parameters are not handled.
func filenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	parts := strings.SplitN(disposition, "filename=", 2)
	if len(parts) < 2 {
		return ""
	}
	name := parts[1]
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	return strings.Trim(strings.TrimSpace(name), `"`)
}
