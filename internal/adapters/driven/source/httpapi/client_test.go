package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

func sampleMessages(n int, offset int) []domain.RawMessage {
	msgs := make([]domain.RawMessage, n)
	for i := range msgs {
		id := strconv.Itoa(offset + i)
		msgs[i] = domain.RawMessage{
			ID:         id,
			SenderID:   "u1",
			SenderName: "Layla",
			Text:       "message " + id,
			Timestamp:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		}
	}
	return msgs
}

func TestFetchSinglePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("ETag", `"v1"`)
		json.NewEncoder(w).Encode(page{Items: sampleMessages(3, 0), Total: 3, Page: 1, PageSize: 10})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, PageSize: 10})
	require.NoError(t, err)

	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, batch.Messages, 3)
	assert.Equal(t, `"v1"`, batch.ETag)
	assert.False(t, batch.FetchedAt.IsZero())
}

func TestFetchFollowsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch pageNum {
		case 1:
			json.NewEncoder(w).Encode(page{Items: sampleMessages(2, 0), Total: 5, Page: 1, PageSize: 2, NextPage: 2})
		case 2:
			json.NewEncoder(w).Encode(page{Items: sampleMessages(2, 2), Total: 5, Page: 2, PageSize: 2, NextPage: 3})
		default:
			json.NewEncoder(w).Encode(page{Items: sampleMessages(1, 4), Total: 5, Page: 3, PageSize: 2})
		}
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, PageSize: 2})
	require.NoError(t, err)

	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Messages, 5)
	// Ordered across pages.
	for i, m := range batch.Messages {
		assert.Equal(t, strconv.Itoa(i), m.ID)
	}
}

func TestFetchInfersNextPageFromFullPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if pageNum == 1 {
			// Full page, no explicit next-page hint.
			json.NewEncoder(w).Encode(page{Items: sampleMessages(2, 0), Page: 1, PageSize: 2})
			return
		}
		json.NewEncoder(w).Encode(page{Items: sampleMessages(1, 2), Page: 2, PageSize: 2})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, PageSize: 2})
	require.NoError(t, err)

	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 3)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(page{Items: sampleMessages(1, 0), Page: 1, PageSize: 10})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Attempts: 3})
	require.NoError(t, err)

	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Attempts: 3})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchNotModifiedReusesCache(t *testing.T) {
	cached := &domain.RawBatch{
		Messages:  sampleMessages(4, 0),
		ETag:      `"v1"`,
		FetchedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	cache := &stubCache{batch: cached}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Cache: cache})
	require.NoError(t, err)

	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, batch.Messages, 4)
	assert.Nil(t, cache.saved, "a 304 must not rewrite the cache")
}

func TestFetchSavesToCache(t *testing.T) {
	cache := &stubCache{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("If-None-Match"))
		w.Header().Set("ETag", `"v2"`)
		json.NewEncoder(w).Encode(page{Items: sampleMessages(2, 0), Page: 1, PageSize: 10})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Cache: cache})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	require.NoError(t, err)

	require.NotNil(t, cache.saved)
	assert.Equal(t, `"v2"`, cache.saved.ETag)
	assert.Len(t, cache.saved.Messages, 2)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

// stubCache is an in-memory MessageCache.
type stubCache struct {
	batch *domain.RawBatch
	saved *domain.RawBatch
}

func (s *stubCache) Load(context.Context) (*domain.RawBatch, error) {
	if s.batch == nil {
		return nil, domain.ErrNotFound
	}
	return s.batch, nil
}

func (s *stubCache) Save(_ context.Context, batch *domain.RawBatch) error {
	s.saved = batch
	return nil
}

func (s *stubCache) Close() error { return nil }
