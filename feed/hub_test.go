package feed

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastsEvents(t *testing.T) {
	h := NewHub(nil, nil)
	defer h.Close()

	a, closeA := dial(t, h)
	defer closeA()
	b, closeB := dial(t, h)
	defer closeB()
	waitClients(t, h, 2)

	h.Publish("spin.resolved", map[string]string{"user_id": "u1"})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "spin.resolved", ev.Type)
		payload, ok := ev.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "u1", payload["user_id"])
		assert.False(t, ev.SentAt.IsZero())
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	h := NewHub(nil, nil)
	defer h.Close()

	conn, closeConn := dial(t, h)
	waitClients(t, h, 1)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	closeConn()
	waitClients(t, h, 0)

	h.Publish("prize.assigned", nil)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	h := NewHub(nil, nil)
	assert.NotPanics(t, func() { h.Publish("user.registered", map[string]string{"code": "123A"}) })
	h.Close()
	assert.Equal(t, 0, h.Clients())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://admin.example.com"})

	r := httptest.NewRequest("GET", "/", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://admin.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))

	assert.True(t, originChecker([]string{"*"})(r))
}
