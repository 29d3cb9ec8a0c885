package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"songcatalog/internal/song/model"
	"songcatalog/internal/song/service"
	"songcatalog/pkg/logger"
)

const maxBodyBytes = 1 << 20

type SongHandler struct {
	Service *service.SongService
}

func NewSongHandler(service *service.SongService) *SongHandler {
	return &SongHandler{Service: service}
}

func (h *SongHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "OK"})
}

func (h *SongHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.CountResponse{Count: n})
}

func (h *SongHandler) GetSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.Service.List(r.Context())
	if err != nil {
		logger.Sugar.Errorf("Error fetching songs: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{Songs: songs})
}

func (h *SongHandler) GetSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	song, err := h.Service.Get(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, model.MessageResponse{Message: "song with id not found"})
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Error fetching song %d: %v", id, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *SongHandler) CreateSong(w http.ResponseWriter, r *http.Request) {
	song, err := model.DecodeSong(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	insertedID, err := h.Service.Create(r.Context(), song)
	if errors.Is(err, service.ErrAlreadyExists) {
		id, _ := song.ID()
		// 302 rather than 409: existing clients depend on it.
		writeJSON(w, http.StatusFound, model.ConflictResponse{
			Message: fmt.Sprintf("song with id %d already present", id),
		})
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create song: %v", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateResponse{InsertedID: insertedID})
}

func (h *SongHandler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	fields, err := model.DecodeSong(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Service.Update(r.Context(), id, fields)
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, model.MessageResponse{Message: "song not found"})
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update song %d: %v", id, err)
		writeError(w, err)
		return
	}

	if res.Modified == 0 {
		writeJSON(w, http.StatusOK, model.MessageResponse{Message: "song found, but nothing updated"})
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (h *SongHandler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.Service.Delete(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, model.MessageResponse{Message: "song not found"})
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete song %d: %v", id, err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID is a second line of defence; the router already rejects non-integer ids.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := model.ParseID(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, model.MessageResponse{Message: "song not found"})
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}
