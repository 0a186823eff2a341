package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MimeLyc/subview/internal/position"
)

type positionResponse struct {
	Key string `json:"key"`
	position.Record
}

// positionKey returns the file name from the route. chi matches on RawPath
// when the request carries one, and only then is the parameter still escaped.
func positionKey(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key
	}
	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}
	return key
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	key := positionKey(r)
	ms, found, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no position stored")
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{Key: key, Record: position.Record{LastSeekMs: ms}})
}

func (s *Server) handlePutPosition(w http.ResponseWriter, r *http.Request) {
	var rec position.Record
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if rec.LastSeekMs < 0 {
		writeError(w, http.StatusBadRequest, "lastSeekMs must not be negative")
		return
	}
	key := positionKey(r)
	if err := s.store.Put(r.Context(), key, rec.LastSeekMs); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{Key: key, Record: rec})
}

func (s *Server) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), positionKey(r)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
