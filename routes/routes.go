package routes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/tmichel/herald/events"
	"github.com/tmichel/herald/history"
	"github.com/tmichel/herald/presence"
)

func renderJSONMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	res := map[string]string{"message": message}
	json.NewEncoder(w).Encode(res)
}

func Register(mux *http.ServeMux, driver *presence.Driver, store *history.Store, stream *events.Stream) http.Handler {

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Herald mirrors what's playing on Plex into Discord. This is its status API.")
	})

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		renderJSONMessage(w, "This is the base of Herald's status API")
	})

	mux.HandleFunc("/api/playing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(driver.Current())
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.Recent(5)
		if err != nil {
			slog.Error("Failed to load history", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			renderJSONMessage(w, "Failed to load history")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	})

	mux.HandleFunc("/events", stream.ServeHTTP)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Origin, Content-Type, Accept"},
	})

	return c.Handler(mux)
}
