package storage

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_NoCA(t *testing.T) {
	hc, err := NewHTTPClient("", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, hc.Timeout)
	assert.Nil(t, hc.Transport)
}

func TestNewHTTPClient_TrustsCustomCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}
	require.NoError(t, os.WriteFile(caFile, pem.EncodeToMemory(block), 0600))

	hc, err := NewHTTPClient(caFile, 0)
	require.NoError(t, err)
	resp, err := hc.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	plain, _ := NewHTTPClient("", 0)
	_, err = plain.Get(srv.URL)
	assert.Error(t, err, "untrusted certificate must be rejected")
}

func TestNewHTTPClient_BadCA(t *testing.T) {
	_, err := NewHTTPClient(filepath.Join(t.TempDir(), "missing.pem"), 0)
	assert.ErrorContains(t, err, "failed to read CA cert")

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0600))
	_, err = NewHTTPClient(bad, 0)
	assert.EqualError(t, err, "failed to parse CA cert")
}
