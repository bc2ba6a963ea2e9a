// Package upload sends a fully-buffered byte stream to the pixeldrain file
// API as a multipart POST. The stream is consumed in a single pass; the
// upload itself is never retried.
package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tuxkal/drainpipe/internal/creds"
	"github.com/tuxkal/drainpipe/internal/utils"
)

const DefaultEndpoint = "https://pixeldrain.com/api/file"

// Result mirrors the service's JSON response.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// PageURL is the shareable link for an uploaded file.
func PageURL(id string) string {
	return fmt.Sprintf("https://pixeldrain.com/u/%s", id)
}

// DirectURL serves the raw file bytes.
func DirectURL(id string) string {
	return fmt.Sprintf("https://pixeldrain.com/api/file/%s", id)
}

type Dispatcher struct {
	client   *utils.HTTPClient
	endpoint string
	log      zerolog.Logger
}

func NewDispatcher(client *utils.HTTPClient, endpoint string, logger zerolog.Logger) *Dispatcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Dispatcher{client: client, endpoint: endpoint, log: logger}
}

// Upload streams r as the file field of a multipart body, authenticated
// with basic auth. The body is piped rather than assembled, so the buffer
// is not copied a second time.
func (d *Dispatcher) Upload(r io.Reader, filename string, c creds.Credentials) (*Result, error) {
	if !c.Complete() {
		return nil, errors.New("missing upload credentials: both username and apikey are required")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequest(http.MethodPost, d.endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("error creating upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("name", filename)
	req.SetBasicAuth(c.Username, c.APIKey)

	d.log.Info().Str("op", "upload").Msgf("uploading %s", filename)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing upload request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading upload response: %v", err)
	}
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("error parsing upload response: %v", err)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = fmt.Sprintf("server returned status %d", resp.StatusCode)
		}
		return &res, fmt.Errorf("upload rejected: %s", msg)
	}
	if res.ID == "" {
		return &res, fmt.Errorf("upload response missing file id (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	d.log.Info().Str("op", "upload").Str("id", res.ID).Msgf("upload complete for %s", filename)
	return &res, nil
}
