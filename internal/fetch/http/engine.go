// Package fetchhttp implements the resumable range download engine: a HEAD
// probe followed by ranged GETs streamed block-wise into an in-memory
// transfer buffer, with offset-preserving retries on transient failures and
// a full-download fallback when the server ignores Range requests.
package fetchhttp

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tuxkal/drainpipe/internal/buffer"
	"github.com/tuxkal/drainpipe/internal/progress"
	"github.com/tuxkal/drainpipe/internal/utils"
)

type Engine struct {
	client  *utils.HTTPClient
	policy  RetryPolicy
	tracker progress.Tracker
	log     zerolog.Logger
}

// NewEngine wires a download engine to one transfer session's collaborators.
// The logger is injected rather than taken from the global so the engine
// stays testable and session-scoped.
func NewEngine(client *utils.HTTPClient, policy RetryPolicy, tracker progress.Tracker, logger zerolog.Logger) *Engine {
	if tracker == nil {
		tracker = progress.Nop{}
	}
	return &Engine{client: client, policy: policy, tracker: tracker, log: logger}
}

// Download retrieves the full resource at url into memory. It blocks until
// the resource is complete and returns the resolved filename and the buffer
// with its read cursor at the start. It fails only on unrecoverable
// conditions (TransferError); transient network failures are retried at the
// last confirmed offset.
func (e *Engine) Download(url string) (string, *buffer.Buffer, error) {
	desc, err := e.Probe(url)
	if err != nil {
		return "", nil, err
	}
	sess := &session{id: uuid.NewString(), desc: desc}
	e.log.Info().Str("op", "fetch/http").Str("session", sess.id).Int64("size", desc.Size).Msgf("starting download of %s", desc.Filename)

	buf := buffer.New()
	e.tracker.Begin(desc.Size, desc.Filename)
	defer e.tracker.End()

	if desc.Size > 0 {
		err = e.downloadRanged(sess, buf)
	} else {
		// No usable Content-Length: stream until the body ends instead of
		// skipping the download entirely.
		err = e.downloadUntilEOF(sess, buf)
	}
	if err != nil {
		return "", nil, err
	}
	buf.SeekStart()
	e.log.Info().Str("op", "fetch/http").Str("session", sess.id).Int64("downloaded", sess.downloaded).Msg("download complete")
	return desc.Filename, buf, nil
}

// downloadRanged fetches [downloaded, size) in ranged requests until the
// declared total is reached.
func (e *Engine) downloadRanged(sess *session, buf *buffer.Buffer) error {
	size := sess.desc.Size
	for sess.downloaded < size {
		req, err := http.NewRequest(http.MethodGet, sess.desc.URL, nil)
		if err != nil {
			return fmt.Errorf("error creating GET request: %v", err)
		}
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", sess.downloaded, size-1))
		req.Header.Set("Connection", "keep-alive")
		resp, err := e.client.Do(req)
		if err != nil {
			if err := e.transient(sess, err); err != nil {
				return err
			}
			continue
		}
		switch {
		case resp.StatusCode == http.StatusPartialContent:
			before := sess.downloaded
			err = e.stream(resp.Body, buf, sess)
			resp.Body.Close()
			if err == nil && sess.downloaded == before {
				err = fmt.Errorf("empty partial content response at offset %d", before)
			}
			if err != nil {
				if err := e.transient(sess, err); err != nil {
					return err
				}
			}
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			// Server ignored the range request. Discard whatever partial
			// content was written and fetch the whole body in one pass.
			resp.Body.Close()
			e.log.Warn().Str("op", "fetch/http").Str("session", sess.id).Int("status", resp.StatusCode).Msg("server ignored range request, falling back to full download")
			done, err := e.fullDownload(sess, buf)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			// Transient failure mid-fallback: loop resumes ranged from the
			// current offset.
		default:
			resp.Body.Close()
			return &TransferError{URL: sess.desc.URL, StatusCode: resp.StatusCode}
		}
	}
	return nil
}

// fullDownload truncates the buffer and re-issues a plain GET, streaming the
// entire body. Returns done=true when the resource was fully retrieved.
func (e *Engine) fullDownload(sess *session, buf *buffer.Buffer) (bool, error) {
	buf.Truncate()
	sess.downloaded = 0
	e.tracker.Begin(sess.desc.Size, sess.desc.Filename)

	req, err := http.NewRequest(http.MethodGet, sess.desc.URL, nil)
	if err != nil {
		return false, fmt.Errorf("error creating GET request: %v", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		if err := e.transient(sess, err); err != nil {
			return false, err
		}
		return false, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &TransferError{URL: sess.desc.URL, StatusCode: resp.StatusCode}
	}
	if err := e.stream(resp.Body, buf, sess); err != nil {
		if err := e.transient(sess, err); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// downloadUntilEOF handles the unknown-length case: a plain GET streamed to
// EOF. Interrupted streams resume with a ranged request from the current
// offset; if the server ignores it, the buffer restarts from scratch.
func (e *Engine) downloadUntilEOF(sess *session, buf *buffer.Buffer) error {
	for {
		req, err := http.NewRequest(http.MethodGet, sess.desc.URL, nil)
		if err != nil {
			return fmt.Errorf("error creating GET request: %v", err)
		}
		if sess.downloaded > 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", sess.downloaded))
		}
		resp, err := e.client.Do(req)
		if err != nil {
			if err := e.transient(sess, err); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return &TransferError{URL: sess.desc.URL, StatusCode: resp.StatusCode}
		}
		if sess.downloaded > 0 && resp.StatusCode != http.StatusPartialContent {
			e.log.Warn().Str("op", "fetch/http").Str("session", sess.id).Int("status", resp.StatusCode).Msg("server ignored resume, restarting stream")
			buf.Truncate()
			sess.downloaded = 0
			e.tracker.Begin(0, sess.desc.Filename)
		}
		err = e.stream(resp.Body, buf, sess)
		resp.Body.Close()
		if err != nil {
			if err := e.transient(sess, err); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

// stream copies the body into the buffer in fixed-size blocks, advancing
// the session counter and the tracker per block.
func (e *Engine) stream(body io.Reader, buf *buffer.Buffer, sess *session) error {
	block := make([]byte, utils.BlockSize)
	for {
		n, err := body.Read(block)
		if n > 0 {
			if _, werr := buf.Write(block[:n]); werr != nil {
				return fmt.Errorf("error writing to transfer buffer: %v", werr)
			}
			sess.downloaded += int64(n)
			sess.failures = 0
			e.tracker.Advance(int64(n))
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("error reading response body: %v", err)
		}
	}
}

// transient logs a recoverable failure and sleeps with exponential backoff.
// It returns a TransferError once the consecutive-failure budget is spent.
func (e *Engine) transient(sess *session, cause error) error {
	sess.failures++
	if e.policy.MaxAttempts > 0 && sess.failures >= e.policy.MaxAttempts {
		return &TransferError{URL: sess.desc.URL, Err: fmt.Errorf("giving up after %d consecutive failures at offset %d: %v", sess.failures, sess.downloaded, cause)}
	}
	wait := e.policy.backoff(sess.failures)
	e.log.Warn().Str("op", "fetch/http").Str("session", sess.id).Int64("offset", sess.downloaded).Msgf("transient transfer error, retrying in %s: %v", wait, cause)
	time.Sleep(wait)
	return nil
}
