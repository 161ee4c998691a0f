package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/models"
)

func TestNotifyObligationAddressesOwner(t *testing.T) {
	h := NewWsHub(zerolog.Nop())

	h.NotifyObligation("user-1", domain.Obligation{ID: "ob-1", Status: domain.ObligationStatusPaid})

	update := <-h.Broadcast
	assert.Equal(t, "obligation", update.Type)
	assert.Equal(t, "user-1", update.UserID)
	assert.Equal(t, string(domain.ObligationStatusPaid), update.Status)
}

func TestNotifyBalanceAddressesOwner(t *testing.T) {
	h := NewWsHub(zerolog.Nop())

	h.NotifyBalance(domain.Balance{OwnerID: "user-1", AvailableCents: 5000})

	update := <-h.Broadcast
	assert.Equal(t, "balance", update.Type)
	assert.Equal(t, "user-1", update.UserID)
}

// dialPair upgrades one server-side connection and returns both ends.
func dialPair(t *testing.T) (server *gws.Conn, client *gws.Conn) {
	t.Helper()

	upgrader := gws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conns := make(chan *gws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server = <-conns
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestDeliverRoutesObligationToOwnerOnly(t *testing.T) {
	h := NewWsHub(zerolog.Nop())

	ownerConn, ownerClient := dialPair(t)
	otherConn, otherClient := dialPair(t)
	h.Clients["user-1"] = map[*gws.Conn]bool{ownerConn: true}
	h.Clients["user-2"] = map[*gws.Conn]bool{otherConn: true}

	h.deliver(models.StatusUpdate{
		Type:      "obligation",
		UserID:    "user-1",
		Status:    string(domain.ObligationStatusPaid),
		Timestamp: time.Now(),
	})

	require.NoError(t, ownerClient.SetReadDeadline(time.Now().Add(time.Second)))
	_, raw, err := ownerClient.ReadMessage()
	require.NoError(t, err)

	var got models.StatusUpdate
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, otherClient.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err = otherClient.ReadMessage()
	require.Error(t, err, "another user's connection must not receive the update")
}
