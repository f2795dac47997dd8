// Copyright © 2018 One Concern

package httpfs

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/storage"
	"github.com/oneconcern/autodataman/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB) (storage.Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repo/repo.json":
			_, _ = w.Write([]byte("this is the text"))
		case "/repo/secret.json":
			w.WriteHeader(http.StatusForbidden)
		case "/repo/broken.json":
			w.WriteHeader(http.StatusBadGateway)
		case "/repo/slow.json":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	bs, err := New(srv.URL + "/repo/")
	require.NoError(t, err)
	return bs, srv
}

func TestNew(t *testing.T) {
	for _, bad := range []string{"ftp://host/repo", "/local/path", "://"} {
		_, err := New(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, status.ErrInvalidKey))
	}

	bs, err := New("http://example.com/repo/")
	require.NoError(t, err)
	assert.Equal(t, "httpfs@http://example.com/repo", bs.String())
	assert.Equal(t, "http://example.com/repo/ds/v1/data.json", bs.(*httpFS).URL("/ds/v1/data.json"))
}

func TestHas(t *testing.T) {
	bs, _ := setupStore(t)

	has, err := bs.Has(context.Background(), "repo.json")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = bs.Has(context.Background(), "missing.json")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = bs.Has(context.Background(), "secret.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrForbidden))
}

func TestGet(t *testing.T) {
	bs, srv := setupStore(t)

	rdr, err := bs.Get(context.Background(), "repo.json")
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text", string(b))

	_, err = bs.Get(context.Background(), "missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
	assert.True(t, errors.Is(err, status.ErrStorageAPI))

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, srv.URL+"/repo/missing.json", fetchErr.URL)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Error(), "status code 404")

	_, err = bs.Get(context.Background(), "broken.json")
	require.Error(t, err)
	assert.False(t, errors.Is(err, status.ErrNotFound))
	assert.True(t, errors.Is(err, status.ErrStorageAPI))
}

func TestTimeout(t *testing.T) {
	_, srv := setupStore(t)

	bs, err := New(srv.URL+"/repo", WithTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = bs.Get(context.Background(), "slow.json")
	require.Error(t, err)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.Error(t, fetchErr.Unwrap())
	assert.False(t, errors.Is(err, status.ErrNotFound))
}

func TestReadOnly(t *testing.T) {
	bs, _ := setupStore(t)

	err := bs.Put(context.Background(), "repo.json", bytes.NewBufferString("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrForbidden))

	err = bs.Delete(context.Background(), "repo.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrForbidden))
}
