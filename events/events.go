// Package events streams presence changes to any listening browser or
// tool over server-sent events.
package events

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/r3labs/sse/v2"

	"github.com/tmichel/herald/presence"
)

const streamName = "presence"

type Stream struct {
	server *sse.Server
}

func Init() *Stream {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(streamName)
	return &Stream{server: server}
}

func (s *Stream) PublishUpdate(update presence.Update) {
	byteStream := new(bytes.Buffer)
	if err := json.NewEncoder(byteStream).Encode(update); err != nil {
		slog.Error("Failed to encode presence update for broadcast", slog.String("error", err.Error()))
		return
	}
	s.server.Publish(streamName, &sse.Event{Data: byteStream.Bytes()})
}

func (s *Stream) PublishClear() {
	s.server.Publish(streamName, &sse.Event{Data: []byte(`{"cleared":true}`)})
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}
