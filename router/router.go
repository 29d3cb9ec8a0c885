package router

import (
	"encoding/json"
	"net/http"

	songHandler "songcatalog/internal/song"
	"songcatalog/internal/song/model"
	"songcatalog/internal/song/service"
	"songcatalog/middleware"
	"songcatalog/socket"
)

func Setup(songService *service.SongService, hub *socket.Hub, corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	// Live catalog feed
	if hub != nil {
		mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
			socket.ServeWs(hub, w, r)
		})
	}

	// REST API
	h := songHandler.NewSongHandler(songService)

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /count", h.Count)
	mux.HandleFunc("GET /song", h.GetSongs)
	mux.HandleFunc("POST /song", h.CreateSong)
	mux.Handle("GET /song/{id}", intID(h.GetSong))
	mux.Handle("PUT /song/{id}", intID(h.UpdateSong))
	mux.Handle("DELETE /song/{id}", intID(h.DeleteSong))

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(corsOrigin)(handler)
	handler = middleware.Recover(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	return handler
}

// intID answers 404 for ids that are not unsigned base-10 integers, so handlers only see valid ids.
func intID(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := model.ParseID(r.PathValue("id")); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "not found"})
			return
		}
		next(w, r)
	})
}
