package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, Options{
		Token:        "secret",
		Timeout:      5 * time.Second,
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", Options{})
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com", Options{})
	assert.Error(t, err)
}

func TestClient_ListSchemas(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schemas", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]string{"demo", "prod"})
	}))

	names, err := c.ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "prod"}, names)
}

func TestClient_FetchSchemaState(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schema/demo", r.URL.Path)
		w.Write([]byte(`{"resources": [
			{"kind": "Th2Box", "name": "codec", "spec": {"pins": [{"name": "in", "connection-type": "mq"}]}},
			{"kind": "Th2Link", "name": "links", "spec": {"boxes-relation": {"router-mq": [], "router-grpc": []}}}
		]}`))
	}))

	state, err := c.FetchSchemaState(context.Background(), "demo")
	require.NoError(t, err)
	entities, err := state.Entities()
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.True(t, models.IsBox(entities[0]))
	assert.True(t, models.IsLinkDefinition(entities[1]))
	assert.True(t, state.ValidationErrors.Empty())
}

func TestClient_SubmitChanges(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var batch []models.RequestModel
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		require.Len(t, batch, 1)
		assert.Equal(t, models.OperationUpdate, batch[0].Operation)
		assert.Equal(t, "svc1", batch[0].Payload.EntityName())

		w.Write([]byte(`{"commitRef": null, "validationErrors": {"boxResourceErrorMessages": [{"box": "svc1", "message": "bad spec"}]}}`))
	}))

	result, err := c.SubmitChanges(context.Background(), "demo", []models.RequestModel{{
		Operation: models.OperationUpdate,
		Payload:   &models.Box{Name: "svc1", Kind: models.KindBox},
	}})
	require.NoError(t, err)
	assert.Nil(t, result.CommitRef)
	require.False(t, result.ValidationErrors.Empty())
	assert.Equal(t, "bad spec", result.ValidationErrors.BoxResourceErrorMessages[0].Message)
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no token", http.StatusUnauthorized)
	}))

	_, err := c.ListSchemas(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "no token", httpErr.Body)
}

func TestClient_FetchCancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchSchemaState(ctx, "demo")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_SubscribeReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var connections atomic.Int32

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/schema/demo", r.URL.Path)
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		if connections.Add(1) == 1 {
			ws.WriteJSON(Event{Type: EventStatusUpdate, Name: "demo", Status: "running"})
			return
		}
		ws.WriteJSON(Event{Type: EventRepositoryUpdate, Name: "demo"})
		ws.ReadMessage()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Subscribe(ctx, "demo")
	require.NoError(t, err)

	var got []EventType
	timeout := time.After(5 * time.Second)
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev.Type)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []EventType{EventStatusUpdate, EventReconnected, EventRepositoryUpdate}, got)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}
