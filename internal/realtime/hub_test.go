package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shareloop/service-booking/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.MustParse(r.URL.Query().Get("user"))
		_ = hub.Serve(w, r, id, r.URL.Query().Get("feed") == "items")
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID uuid.UUID, feed bool) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + userID.String()
	if feed {
		url += "&feed=items"
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no frame")
}

func TestHub_RoutesToRecipients(t *testing.T) {
	hub, srv := startHub(t)
	borrower, owner, stranger := uuid.New(), uuid.New(), uuid.New()

	bConn := dial(t, srv, borrower, false)
	oConn := dial(t, srv, owner, false)
	sConn := dial(t, srv, stranger, false)
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	err := hub.Publish(context.Background(), events.Event{
		Type:       events.TypeBookingUpdated,
		Subject:    uuid.New(),
		Recipients: []uuid.UUID{borrower, owner},
		Data:       map[string]string{"status": "approved"},
	})
	require.NoError(t, err)

	assert.Equal(t, events.TypeBookingUpdated, readMessage(t, bConn).Type)
	assert.Equal(t, events.TypeBookingUpdated, readMessage(t, oConn).Type)
	expectSilence(t, sConn)
}

func TestHub_ItemFeed(t *testing.T) {
	hub, srv := startHub(t)
	owner, watcher, other := uuid.New(), uuid.New(), uuid.New()

	oConn := dial(t, srv, owner, true)
	wConn := dial(t, srv, watcher, true)
	xConn := dial(t, srv, other, false)
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), events.Event{
		Type:       events.TypeItemUpdated,
		Recipients: []uuid.UUID{owner},
		Broadcast:  true,
	}))

	assert.Equal(t, events.TypeItemUpdated, readMessage(t, oConn).Type)
	assert.Equal(t, events.TypeItemUpdated, readMessage(t, wConn).Type)
	expectSilence(t, oConn)
	expectSilence(t, xConn)
}

func TestHub_SubscribeFrames(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, uuid.New(), false)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(clientFrame{Type: framePing}))
	assert.Equal(t, framePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(clientFrame{Type: frameSubscribe, Topic: topicItems}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.feed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), events.Event{Type: events.TypeItemUpdated, Broadcast: true}))
	assert.Equal(t, events.TypeItemUpdated, readMessage(t, conn).Type)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, uuid.New(), true)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, hub.Publish(context.Background(), events.Event{Type: events.TypeItemUpdated, Broadcast: true}))
}
