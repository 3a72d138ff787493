package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wstypes "marketplace-service/internal/domain/websocket"
	ws "marketplace-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startHub(t *testing.T) (*ws.Hub, *httptest.Server) {
	t.Helper()
	hub := ws.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	h := NewWebSocketHandler(hub, nil, zap.NewNop())
	r := gin.New()
	r.GET("/ws", h.HandleConnection)
	r.GET("/ws/stats", h.Stats)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, account string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?account=" + account
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := read(t, conn)
	require.Equal(t, wstypes.EventTypeConnected, msg.Type)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wstypes.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wstypes.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestDealEventsReachBothParties(t *testing.T) {
	hub, srv := startHub(t)
	buyerConn := dial(t, srv, "a1")
	vendorConn := dial(t, srv, "v1")
	otherConn := dial(t, srv, "v2")

	hub.PublishDealEvent(wstypes.EventTypeDealStageChanged, &wstypes.DealEventData{
		DealID:         "d1",
		BuyerAccountID: "a1",
		VendorID:       "v1",
		Stage:          "Agreement Reached",
		PreviousStage:  "Negotiating Terms",
	})

	for _, conn := range []*websocket.Conn{buyerConn, vendorConn} {
		msg := read(t, conn)
		assert.Equal(t, wstypes.EventTypeDealStageChanged, msg.Type)
		data, ok := msg.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "d1", data["dealId"])
		assert.Equal(t, "Negotiating Terms", data["previousStage"])
	}

	// v2 only sees its own deal
	hub.PublishDealEvent(wstypes.EventTypeDealCreated, &wstypes.DealEventData{DealID: "d2", BuyerAccountID: "a9", VendorID: "v2"})
	msg := read(t, otherConn)
	assert.Equal(t, wstypes.EventTypeDealCreated, msg.Type)
	assert.Equal(t, "d2", msg.Data.(map[string]interface{})["dealId"])
}

func TestPingPong(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "a1")

	require.NoError(t, conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypePing, nil)))
	assert.Equal(t, wstypes.EventTypePong, read(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg := read(t, conn)
	assert.Equal(t, wstypes.EventTypeError, msg.Type)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "a1")
	assert.Equal(t, 1, hub.ConnectedClients("a1"))

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.TotalClients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMissingAccount(t *testing.T) {
	_, srv := startHub(t)
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublishNeverBlocks(t *testing.T) {
	// hub not running: the backlog fills and further events are dropped
	hub := ws.NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.PublishDealEvent(wstypes.EventTypeDealCreated, &wstypes.DealEventData{DealID: "d", BuyerAccountID: "a1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PublishDealEvent blocked")
	}
}
