package upload

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuxkal/drainpipe/internal/creds"
	"github.com/tuxkal/drainpipe/internal/utils"
)

func testDispatcher(endpoint string) *Dispatcher {
	client := utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: 5 * time.Second})
	return NewDispatcher(client, endpoint, zerolog.Nop())
}

func TestUploadSendsMultipartWithAuth(t *testing.T) {
	var gotUser, gotKey, gotName, gotField, gotFilename, gotContent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotKey, _ = r.BasicAuth()
		gotName = r.Header.Get("name")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotField = "file"
		gotFilename = header.Filename
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		gotContent = string(data)

		json.NewEncoder(w).Encode(Result{Success: true, ID: "abc123"})
	}))
	defer srv.Close()

	c := creds.Credentials{Username: "alice", APIKey: "key-123"}
	res, err := testDispatcher(srv.URL).Upload(strings.NewReader("streamed bytes"), "blob.bin", c)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "abc123", res.ID)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "blob.bin", gotName)
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "blob.bin", gotFilename)
	assert.Equal(t, "streamed bytes", gotContent)
}

func TestUploadSurfacesServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(Result{Success: false, Message: "file too large"})
	}))
	defer srv.Close()

	c := creds.Credentials{Username: "alice", APIKey: "key-123"}
	res, err := testDispatcher(srv.URL).Upload(strings.NewReader("x"), "big.bin", c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
	require.NotNil(t, res)
	assert.False(t, res.Success)
}

func TestUploadDistrustsStatusSuccessMismatch(t *testing.T) {
	// 2xx with an id but no success flag from the service: the parsed
	// response wins and the raw body is surfaced.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"abc123"}`))
	}))
	defer srv.Close()

	c := creds.Credentials{Username: "alice", APIKey: "key-123"}
	res, err := testDispatcher(srv.URL).Upload(strings.NewReader("x"), "f.bin", c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `{"id":"abc123"}`)
	require.NotNil(t, res)
	assert.False(t, res.Success)
}

func TestUploadRejectsSuccessWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{Success: true})
	}))
	defer srv.Close()

	c := creds.Credentials{Username: "alice", APIKey: "key-123"}
	_, err := testDispatcher(srv.URL).Upload(strings.NewReader("x"), "f.bin", c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing file id")
}

func TestUploadRequiresCredentials(t *testing.T) {
	_, err := testDispatcher("http://unused.invalid").Upload(strings.NewReader("x"), "f", creds.Credentials{Username: "only-user"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing upload credentials")
}

func TestURLHelpers(t *testing.T) {
	assert.Equal(t, "https://pixeldrain.com/u/abc", PageURL("abc"))
	assert.Equal(t, "https://pixeldrain.com/api/file/abc", DirectURL("abc"))
}
