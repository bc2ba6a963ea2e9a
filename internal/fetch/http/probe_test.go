package fetchhttp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuxkal/drainpipe/internal/utils"
)

func TestFilenameFromDisposition(t *testing.T) {
	cases := []struct {
		name        string
		disposition string
		want        string
	}{
		{"quoted", `attachment; filename="report.pdf"`, "report.pdf"},
		{"bare", `attachment; filename=data.csv`, "data.csv"},
		{"trailing params", `attachment; filename="a.txt"; size=5`, "a.txt"},
		{"no filename", `attachment`, ""},
		{"empty", ``, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, filenameFromDisposition(tc.disposition))
		})
	}
}

func TestProbeDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no Content-Length, no Content-Disposition
	}))
	defer srv.Close()

	desc, err := testEngine(&recordingTracker{}).Probe(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(0), desc.Size)
	assert.Equal(t, "Unnamed", desc.Filename)
}

func TestProbeReadsMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
		w.Header().Set("Content-Disposition", `attachment; filename="archive.tar.gz"`)
	}))
	defer srv.Close()

	desc, err := testEngine(&recordingTracker{}).Probe(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), desc.Size)
	assert.Equal(t, "archive.tar.gz", desc.Filename)
}

func TestProbeCarriesConfiguredHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Length", "64")
	}))
	defer srv.Close()

	client := utils.NewHTTPClient(utils.HTTPClientConfig{
		Timeout: 5 * time.Second,
		Headers: map[string]string{"X-Token": "secret"},
	})
	policy := RetryPolicy{MaxAttempts: 2, WaitMin: time.Millisecond, WaitMax: time.Millisecond}
	engine := NewEngine(client, policy, &recordingTracker{}, zerolog.Nop())

	desc, err := engine.Probe(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(64), desc.Size)
}

func TestProbeRetryCapFollowsPolicy(t *testing.T) {
	var mu sync.Mutex
	var heads int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		heads++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: 2 * time.Second})
	policy := RetryPolicy{MaxAttempts: 2, WaitMin: time.Millisecond, WaitMax: time.Millisecond}
	engine := NewEngine(client, policy, &recordingTracker{}, zerolog.Nop())

	_, err := engine.Probe(srv.URL)
	require.Error(t, err)
	assert.Equal(t, 2, heads)
}

func TestProbeFatalOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testEngine(&recordingTracker{}).Probe(srv.URL)
	require.Error(t, err)

	var terr *TransferError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
}
