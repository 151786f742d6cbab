package discord

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startIPCServer stands up a fake Discord client on discord-ipc-0 inside
// a temp runtime dir and points socket discovery at it.
func startIPCServer(t *testing.T, handler func(conn net.Conn)) {
	t.Helper()
	dir := t.TempDir()
	listener, err := net.Listen("unix", filepath.Join(dir, "discord-ipc-0"))
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("TMPDIR", dir)
}

// acceptHandshake consumes and answers the handshake, returning the
// client id the peer announced.
func acceptHandshake(t *testing.T, conn net.Conn) string {
	t.Helper()
	op, payload, err := readFrame(conn)
	if err != nil {
		t.Error(err)
		return ""
	}
	if op != opHandshake {
		t.Errorf("expected handshake op, got %d", op)
	}
	var handshake struct {
		V        int    `json:"v"`
		ClientId string `json:"client_id"`
	}
	if err := json.Unmarshal(payload, &handshake); err != nil {
		t.Error(err)
	}
	writeFrame(conn, opFrame, []byte(`{"cmd":"DISPATCH","evt":"READY"}`))
	return handshake.ClientId
}

func TestConnect_NoSocket(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("TMPDIR", dir)

	c := NewClient("app-123")
	err := c.Connect()
	assert.ErrorIs(t, err, ErrNoSocket)
}

func TestConnect_Handshake(t *testing.T) {
	clientIds := make(chan string, 1)
	startIPCServer(t, func(conn net.Conn) {
		clientIds <- acceptHandshake(t, conn)
	})

	c := NewClient("app-123")
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case clientId := <-clientIds:
		assert.Equal(t, "app-123", clientId)
	case <-time.After(time.Second):
		t.Fatal("server never saw a handshake")
	}
}

func TestConnect_RejectedHandshake(t *testing.T) {
	startIPCServer(t, func(conn net.Conn) {
		readFrame(conn)
		writeFrame(conn, opFrame, []byte(`{"evt":"ERROR","data":{"code":4000,"message":"Invalid Client ID"}}`))
	})

	c := NewClient("bogus")
	err := c.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Client ID")
}

func TestSetActivity(t *testing.T) {
	frames := make(chan []byte, 1)
	startIPCServer(t, func(conn net.Conn) {
		acceptHandshake(t, conn)
		op, payload, err := readFrame(conn)
		if err != nil {
			t.Error(err)
			return
		}
		if op != opFrame {
			t.Errorf("expected frame op, got %d", op)
		}
		frames <- payload
		writeFrame(conn, opFrame, []byte(`{"cmd":"SET_ACTIVITY","evt":""}`))
	})

	c := NewClient("app-123")
	require.NoError(t, c.Connect())
	defer c.Close()

	activity := Activity{
		Type:    ActivityWatching,
		Details: "Show X",
		State:   "S2・E5 - The Trial",
		Timestamps: &Timestamps{
			Start: 1700000000,
			End:   1700001500,
		},
		Assets: &Assets{
			LargeImage: "https://example.com/show-x.jpg",
			LargeText:  "The Trial",
			SmallImage: "play",
			SmallText:  "Playing",
		},
	}
	require.NoError(t, c.SetActivity(activity))

	select {
	case frame := <-frames:
		var sent struct {
			Cmd   string `json:"cmd"`
			Nonce string `json:"nonce"`
			Args  struct {
				Pid      int      `json:"pid"`
				Activity Activity `json:"activity"`
			} `json:"args"`
		}
		require.NoError(t, json.Unmarshal(frame, &sent))
		assert.Equal(t, "SET_ACTIVITY", sent.Cmd)
		assert.NotEmpty(t, sent.Nonce)
		assert.NotZero(t, sent.Args.Pid)
		assert.Equal(t, activity, sent.Args.Activity)
	case <-time.After(time.Second):
		t.Fatal("server never saw the activity frame")
	}
}

func TestClear_OmitsActivity(t *testing.T) {
	frames := make(chan []byte, 1)
	startIPCServer(t, func(conn net.Conn) {
		acceptHandshake(t, conn)
		_, payload, err := readFrame(conn)
		if err != nil {
			t.Error(err)
			return
		}
		frames <- payload
		writeFrame(conn, opFrame, []byte(`{"cmd":"SET_ACTIVITY","evt":""}`))
	})

	c := NewClient("app-123")
	require.NoError(t, c.Connect())
	defer c.Close()

	require.NoError(t, c.Clear())

	select {
	case frame := <-frames:
		var sent struct {
			Args map[string]json.RawMessage `json:"args"`
		}
		require.NoError(t, json.Unmarshal(frame, &sent))
		_, hasActivity := sent.Args["activity"]
		assert.False(t, hasActivity, "a clear should not carry an activity")
	case <-time.After(time.Second):
		t.Fatal("server never saw the clear frame")
	}
}

func TestSetActivity_ErrorResponse(t *testing.T) {
	startIPCServer(t, func(conn net.Conn) {
		acceptHandshake(t, conn)
		readFrame(conn)
		writeFrame(conn, opFrame, []byte(`{"evt":"ERROR","data":{"code":4002,"message":"Invalid payload"}}`))
	})

	c := NewClient("app-123")
	require.NoError(t, c.Connect())
	defer c.Close()

	err := c.SetActivity(Activity{State: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid payload")
}

func TestSetActivity_NotConnected(t *testing.T) {
	c := NewClient("app-123")
	err := c.SetActivity(Activity{State: "orphaned"})
	assert.Error(t, err)
}

func TestActivity_IsEmpty(t *testing.T) {
	assert.True(t, Activity{}.IsEmpty())
	assert.False(t, Activity{State: "something"}.IsEmpty())
	assert.False(t, Activity{Timestamps: &Timestamps{Start: 1}}.IsEmpty())
}

func TestActivity_MarshalOmitsUnsetFields(t *testing.T) {
	raw, err := json.Marshal(Activity{Type: ActivityListening, State: "Supermodel"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":2,"state":"Supermodel"}`, string(raw))
}
