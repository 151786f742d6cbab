// Package discord talks to the local Discord client's rich-presence IPC
// socket directly. Frames are a little-endian opcode + length header
// followed by a JSON payload; the handshake announces our application id
// and SET_ACTIVITY commands carry the presence itself.
package discord

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	opHandshake = 0
	opFrame     = 1
	opClose     = 2

	// a hung client shouldn't be able to stall our update loop
	ioTimeout = 5 * time.Second

	// frames past this size are a protocol violation, not a real payload
	maxFrameSize = 64 * 1024
)

var ErrNoSocket = errors.New("no discord ipc socket found, is the client running?")

type command struct {
	Cmd   string          `json:"cmd"`
	Args  json.RawMessage `json:"args,omitempty"`
	Nonce string          `json:"nonce,omitempty"`
}

type response struct {
	Cmd  string `json:"cmd"`
	Evt  string `json:"evt"`
	Data struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"data"`
}

type Client struct {
	ClientId string

	conn  net.Conn
	nonce int
}

func NewClient(clientId string) *Client {
	return &Client{ClientId: clientId}
}

// socketCandidates lists every path the Discord client might be listening
// on, in discovery order. The client binds discord-ipc-0 first and counts
// up when older instances are still holding sockets open.
func socketCandidates() []string {
	var dirs []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			dirs = append(dirs, dir)
			// flatpak and snap installs nest their sockets
			dirs = append(dirs,
				filepath.Join(dir, "app", "com.discordapp.Discord"),
				filepath.Join(dir, "snap.discord"),
			)
		}
	}
	dirs = append(dirs, "/tmp")

	var candidates []string
	for _, dir := range dirs {
		for i := 0; i < 10; i++ {
			candidates = append(candidates, filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return candidates
}

// Connect dials the client's IPC socket and performs the handshake.
// Returns ErrNoSocket when no Discord client appears to be running.
func (c *Client) Connect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	var conn net.Conn
	for _, candidate := range socketCandidates() {
		dialed, err := net.DialTimeout("unix", candidate, time.Second)
		if err == nil {
			conn = dialed
			break
		}
	}
	if conn == nil {
		return ErrNoSocket
	}

	handshake, err := json.Marshal(map[string]any{
		"v":         1,
		"client_id": c.ClientId,
	})
	if err != nil {
		conn.Close()
		return err
	}
	if err := writeFrame(conn, opHandshake, handshake); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send handshake: %w", err)
	}

	op, payload, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to read handshake response: %w", err)
	}
	if op == opClose {
		conn.Close()
		return fmt.Errorf("discord closed the connection during handshake: %s", payload)
	}
	var ready response
	if err := json.Unmarshal(payload, &ready); err != nil {
		conn.Close()
		return fmt.Errorf("failed to parse handshake response: %w", err)
	}
	if ready.Evt == "ERROR" {
		conn.Close()
		return fmt.Errorf("discord rejected handshake: %s", ready.Data.Message)
	}

	c.conn = conn
	return nil
}

// SetActivity replaces the presence shown on the logged-in user's profile.
func (c *Client) SetActivity(activity Activity) error {
	args, err := json.Marshal(map[string]any{
		"pid":      os.Getpid(),
		"activity": activity,
	})
	if err != nil {
		return err
	}
	return c.send("SET_ACTIVITY", args)
}

// Clear removes the presence entirely.
func (c *Client) Clear() error {
	args, err := json.Marshal(map[string]any{
		"pid": os.Getpid(),
	})
	if err != nil {
		return err
	}
	return c.send("SET_ACTIVITY", args)
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	writeFrame(c.conn, opClose, []byte("{}"))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(cmd string, args json.RawMessage) error {
	if c.conn == nil {
		return errors.New("not connected to discord")
	}

	c.nonce++
	payload, err := json.Marshal(command{
		Cmd:   cmd,
		Args:  args,
		Nonce: fmt.Sprintf("%d", c.nonce),
	})
	if err != nil {
		return err
	}
	if err := writeFrame(c.conn, opFrame, payload); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}

	op, body, err := readFrame(c.conn)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", cmd, err)
	}
	if op == opClose {
		return fmt.Errorf("discord closed the connection: %s", body)
	}
	var res response
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", cmd, err)
	}
	if res.Evt == "ERROR" {
		return fmt.Errorf("discord rejected %s: %s", cmd, res.Data.Message)
	}
	return nil
}

func writeFrame(conn net.Conn, op uint32, payload []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(ioTimeout)); err != nil {
		return err
	}
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], op)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := conn.Write(header); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

func readFrame(conn net.Conn) (uint32, []byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(ioTimeout)); err != nil {
		return 0, nil, err
	}
	header := make([]byte, 8)
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, nil, err
	}
	op := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameSize {
		return 0, nil, fmt.Errorf("discord sent an oversized frame of %d bytes", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return 0, nil, err
	}
	return op, payload, nil
}
