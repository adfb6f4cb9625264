package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/golf-directory/errors"
)

func TestAudioFileName(t *testing.T) {
	assert.Equal(t, "jim-nantz-abc123.mp3", AudioFileName("abc123"))
}

func TestLocalStoreSaveAudio(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	s, err := NewLocalStore(dir, "/audio")
	require.NoError(t, err)

	url, err := s.SaveAudio(context.Background(), AudioFileName("v1"), []byte("mp3"))
	require.NoError(t, err)
	assert.Equal(t, "/audio/jim-nantz-v1.mp3", url)

	data, err := os.ReadFile(filepath.Join(dir, "jim-nantz-v1.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(data))

	_, err = os.Stat(filepath.Join(dir, "jim-nantz-v1.mp3.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRejectsPaths(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.SaveAudio(context.Background(), "../escape.mp3", []byte("x"))
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestSpacesStoreSaveAudio(t *testing.T) {
	var method, path, contentType, acl string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		acl = r.Header.Get("X-Amz-Acl")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewSpacesStore(context.Background(), SpacesConfig{
		AccessKey: "key",
		SecretKey: "secret",
		Region:    "nyc3",
		Endpoint:  srv.URL,
		Bucket:    "golf",
		PublicURL: "https://golf.nyc3.cdn.example.com",
		Prefix:    "audio",
	})
	require.NoError(t, err)

	url, err := s.SaveAudio(context.Background(), "jim-nantz-v1.mp3", []byte("mp3-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://golf.nyc3.cdn.example.com/audio/jim-nantz-v1.mp3", url)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/golf/audio/jim-nantz-v1.mp3", path)
	assert.Equal(t, "audio/mpeg", contentType)
	assert.Equal(t, "public-read", acl)
	assert.Equal(t, "mp3-bytes", string(body))
}

func TestSpacesStoreUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code></Error>`))
	}))
	defer srv.Close()

	s, err := NewSpacesStore(context.Background(), SpacesConfig{
		AccessKey: "key", SecretKey: "secret", Region: "nyc3", Endpoint: srv.URL, Bucket: "golf",
	})
	require.NoError(t, err)

	_, err = s.SaveAudio(context.Background(), "a.mp3", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.KindCollaborator, errors.KindOf(err))
}
