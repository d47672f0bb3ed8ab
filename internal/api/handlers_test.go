package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohanmatta11/CrowdSense/internal/data"
	"github.com/rohanmatta11/CrowdSense/internal/storage"
	"github.com/rohanmatta11/CrowdSense/internal/store"
	"github.com/rohanmatta11/CrowdSense/internal/websocket"
)

func setupServer(t *testing.T, apiKeys []string) *httptest.Server {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "api_test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hub := websocket.NewHub()
	go hub.Run()

	srv := httptest.NewServer(NewRouter(NewHandler(st, hub), apiKeys))
	t.Cleanup(srv.Close)
	return srv
}

func TestInsertAndList(t *testing.T) {
	srv := setupServer(t, nil)

	resp, err := http.Post(srv.URL+"/records", "application/json",
		strings.NewReader(`{"people_count":4,"lat":41.89,"lon":12.49}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec data.CrowdRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	list, err := http.Get(srv.URL + "/records")
	require.NoError(t, err)
	defer list.Body.Close()

	var records []data.CrowdRecord
	require.NoError(t, json.NewDecoder(list.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestListEmptyIsArray(t *testing.T) {
	srv := setupServer(t, nil)

	resp, err := http.Get(srv.URL + "/records")
	require.NoError(t, err)
	defer resp.Body.Close()

	var records []data.CrowdRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestInsertValidation(t *testing.T) {
	srv := setupServer(t, nil)

	for _, body := range []string{`not json`, `{"people_count":0,"lat":1,"lon":2}`} {
		resp, err := http.Post(srv.URL+"/records", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body=%s", body)
	}
}

func TestDeleteAbsentSucceeds(t *testing.T) {
	srv := setupServer(t, nil)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/records/no-such-id", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPIKeyRequired(t *testing.T) {
	srv := setupServer(t, []string{"good-key"})

	resp, err := http.Get(srv.URL + "/records")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/records", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "good-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Query-parameter fallback for websocket viewers.
	resp, err = http.Get(srv.URL + "/records?api_key=good-key")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientRoundTrip(t *testing.T) {
	srv := setupServer(t, []string{"k"})
	client := store.NewClient(srv.URL, "k")
	ctx := context.Background()

	rec, err := client.Insert(ctx, 9, -23.55, -46.63)
	require.NoError(t, err)

	records, err := client.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
	assert.Equal(t, 9, records[0].PeopleCount)

	require.NoError(t, client.Delete(ctx, rec.ID))
	records, err = client.SelectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFeedBroadcastsInserts(t *testing.T) {
	srv := setupServer(t, nil)

	wsAddr := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	conn, _, err := gwebsocket.DefaultDialer.Dial(wsAddr, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a beat to process the registration before inserting.
	time.Sleep(50 * time.Millisecond)

	resp, err := http.Post(srv.URL+"/records", "application/json",
		strings.NewReader(`{"people_count":2,"lat":1,"lon":2}`))
	require.NoError(t, err)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string           `json:"type"`
		Payload data.CrowdRecord `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, "record", event.Type)
	assert.Equal(t, 2, event.Payload.PeopleCount)
}
