package poll

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-sod/glove/internal/transport"
)

func TestTransport_Next(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/0":
			_, _ = w.Write([]byte("1.0-2.0-3.0"))
		case "/1":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte(" 4.0 - 5.0 - 6.0 \r\n"))
		}
	}))
	defer srv.Close()

	tr, err := New(srv.URL+"/", WithTimeout(time.Second))
	require.NoError(t, err)
	defer tr.Close()

	frame, err := tr.Next(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "1.0-2.0-3.0", frame)

	_, err = tr.Next(context.Background(), 1)
	require.True(t, errors.Is(err, transport.ErrTransferFailed), err)

	frame, err = tr.Next(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, " 4.0 - 5.0 - 6.0 \r\n", frame)

	require.Equal(t, []string{"/0", "/1", "/2"}, paths)
}

func TestTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/"
	srv.Close()

	tr, err := New(url, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = tr.Next(context.Background(), 7)
	require.True(t, errors.Is(err, transport.ErrTransferFailed), err)
}

func TestTransport_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr, err := New(srv.URL+"/", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	_, err = tr.Next(context.Background(), 0)
	require.True(t, errors.Is(err, transport.ErrTransferFailed), err)
}

func TestNew(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	tr, err := NewFromConfig(&Config{BaseURL: "http://192.168.137.233/"})
	require.NoError(t, err)
	require.Equal(t, "http://192.168.137.233/42", tr.URL(42))
}
