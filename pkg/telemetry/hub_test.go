package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/armctl/pkg/control"
	"github.com/gwillem/armctl/pkg/host"
	"github.com/gwillem/armctl/pkg/robot"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_CommandsIn(t *testing.T) {
	cmds := make(chan host.Command, 10)
	hub := NewHub(cmds, zerolog.Nop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("A45$bogus$C90$")))

	var got []host.Command
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case c := <-cmds:
			got = append(got, c)
		case <-timeout:
			t.Fatalf("got %d commands", len(got))
		}
	}
	assert.Equal(t, []host.Command{
		{Kind: host.Servo, Channel: robot.Base, Value: 45},
		{Kind: host.Servo, Channel: robot.Elbow, Value: 90},
	}, got)
}

func TestHub_SnapshotsOut(t *testing.T) {
	hub := NewHub(make(chan host.Command, 1), zerolog.Nop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	states := make(chan control.Snapshot, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, states)

	states <- control.Snapshot{Mode: "host", Raw: robot.Uniform(45), Player: "idle"}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got control.Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "host", got.Mode)
	assert.Equal(t, robot.Uniform(45), got.Raw)
}

func TestHub_ClientGone(t *testing.T) {
	hub := NewHub(make(chan host.Command, 1), zerolog.Nop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(control.Snapshot{Mode: "knob"})
}

func TestHub_Health(t *testing.T) {
	hub := NewHub(make(chan host.Command, 1), zerolog.Nop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body["clients"])
}
