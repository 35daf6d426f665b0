package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boterrors "github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/errors"
)

func TestListGoals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"uid":"G1","name":"UPSC"},{"uid":"G2","name":"JEE"}]`)
	}))
	defer server.Close()

	gw := NewGateway(server.URL, server.URL, time.Second)

	goals, err := gw.ListGoals(context.Background())
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "G1", goals[0].UID)
	assert.Equal(t, "JEE", goals[1].Name)
}

func TestListGoalsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gw := NewGateway(server.URL, server.URL, time.Second)

	_, err := gw.ListGoals(context.Background())
	require.Error(t, err)
	assert.True(t, boterrors.IsCategory(err, boterrors.ErrTransport))
}

func TestListGoalsParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"an array"}`)
	}))
	defer server.Close()

	gw := NewGateway(server.URL, server.URL, time.Second)

	_, err := gw.ListGoals(context.Background())
	require.Error(t, err)
	assert.True(t, boterrors.IsCategory(err, boterrors.ErrTransport))
}

func TestListBatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "G1", r.URL.Query().Get("goal_uid"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		_, _ = io.WriteString(w, batchPageFixtureJSON())
	}))
	defer server.Close()

	gw := NewGateway(server.URL, server.URL, time.Second)

	page, err := gw.ListBatches(context.Background(), "G1", 20)
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.True(t, page.HasPrevious)
	assert.False(t, page.HasNext)

	first := page.Results[0]
	assert.Equal(t, "B1", first.UID)
	assert.Equal(t, "Target 2027", first.Name)
	assert.Equal(t, "G1", first.Goal.UID)
	require.Len(t, first.Languages, 2)
	assert.Equal(t, "Hindi", first.Languages[0].Label)
	assert.Equal(t, 2027, first.StartsAt.Year())
	assert.Equal(t, "https://example.com/b1.jpg", first.CoverPhoto)
	assert.Empty(t, page.Results[1].CoverPhoto)
}

func TestListBatchesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := NewGateway(server.URL, server.URL, time.Second)

	page, err := gw.ListBatches(context.Background(), "G1", 0)
	require.Error(t, err)
	// A failure must be distinguishable from an empty page.
	assert.Nil(t, page)
	assert.True(t, boterrors.IsCategory(err, boterrors.ErrTransport))
}

func batchPageFixtureJSON() string {
	return `{
  "results": [
    {
      "uid": "B1",
      "name": "Target 2027",
      "goal": {"uid": "G1", "name": "UPSC"},
      "starts_at": "2027-01-05T09:00:00Z",
      "languages": [{"label": "Hindi"}, {"label": "English"}],
      "permalink": "https://example.com/batch/b1",
      "cover_photo": "https://example.com/b1.jpg"
    },
    {
      "uid": "B2",
      "name": "Foundation",
      "goal": {"uid": "G1", "name": "UPSC"},
      "starts_at": "2027-02-01T04:30:00Z",
      "languages": [{"label": "English"}],
      "permalink": "https://example.com/batch/b2"
    }
  ],
  "previous": "https://upstream/api?offset=10",
  "next": null
}`
}
