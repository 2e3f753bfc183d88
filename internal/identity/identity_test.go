package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Match(t *testing.T) {
	growerID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/growers/"+growerID.String()+"/match", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(matchResponse{Match: string(body) == "face"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	ok, err := client.Match(context.Background(), growerID, []byte("face"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Match(context.Background(), growerID, []byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_PhotoReference(t *testing.T) {
	known := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/growers/"+known.String()+"/photo" {
			_ = json.NewEncoder(w).Encode(photoResponse{Handle: "b3:abc"})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	handle, err := client.PhotoReference(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, "b3:abc", handle)

	_, err = client.PhotoReference(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoReferencePhoto)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Match(context.Background(), uuid.New(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_HonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, time.Minute).Match(ctx, uuid.New(), []byte("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatic(t *testing.T) {
	static := NewStatic()
	growerID := uuid.New()
	ctx := context.Background()

	_, err := static.Match(ctx, growerID, []byte("face"))
	assert.ErrorIs(t, err, ErrNoReferencePhoto)

	static.Enroll(growerID, []byte("face"))
	ok, err := static.Match(ctx, growerID, []byte("face"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = static.Match(ctx, growerID, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	handle, err := static.PhotoReference(ctx, growerID)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)
}
