package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/internal/viewer"
	"github.com/MimeLyc/subview/pkg/file"
	"github.com/MimeLyc/subview/pkg/log"
)

type ctxKey int

const sessionKey ctxKey = iota

func (s *Server) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.registry.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(r *http.Request) *viewer.Session {
	return r.Context().Value(sessionKey).(*viewer.Session)
}

type sessionSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Generation uint64 `json:"generation"`
	Entries    int    `json:"entries"`
	HasMedia   bool   `json:"has_media"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ret := make([]sessionSummary, 0)
	for _, id := range s.registry.List() {
		sess, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		snap := sess.Snapshot()
		ret = append(ret, sessionSummary{
			ID:         snap.ID,
			Name:       snap.Name,
			Generation: snap.Generation,
			Entries:    len(snap.Entries),
			HasMedia:   snap.HasMedia,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.registry.Create()
	log.Info("Created session %s", sess.ID())
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionFrom(r).ID()
	if err := s.dropSession(id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dropSession(id string) error {
	err := s.registry.Delete(id)
	s.setVideo(id, video{})
	return err
}

// handleUploadSubtitles accepts a multipart "file" field or a raw body with
// ?name=. A rejected file leaves the session untouched.
func (s *Server) handleUploadSubtitles(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	name, data, err := readUpload(r)
	if err != nil {
		if statusForError(err) == http.StatusRequestEntityTooLarge {
			writeErr(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".srt") {
		writeError(w, http.StatusUnsupportedMediaType, "only .srt subtitle files are supported")
		return
	}

	snap, err := sess.LoadSubtitles(r.Context(), name, data)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func readUpload(r *http.Request) (string, []byte, error) {
	name := r.URL.Query().Get("name")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		defer f.Close()
		if name == "" {
			name = header.Filename
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, f); err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		return cleanName(name), buf.Bytes(), nil
	}

	if name == "" {
		return "", nil, errors.New("name query parameter is required for raw uploads")
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return cleanName(name), data, nil
}

func cleanName(name string) string {
	return filepath.Base(filepath.FromSlash(strings.TrimSpace(name)))
}

// handleExportSubtitles downloads the loaded sequence, as SRT unless
// ?format= names another output format.
func (s *Server) handleExportSubtitles(w http.ResponseWriter, r *http.Request) {
	format, err := subtitle.ParseOutputFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, err)
		return
	}
	loaded := sessionFrom(r).File()
	if loaded == nil {
		writeErr(w, viewer.ErrNoSubtitles)
		return
	}
	filename := loaded.Name
	if format != subtitle.OutputSRT {
		filename = file.ReplaceExt(filename, format.Ext())
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := subtitle.Convert(w, loaded.Name, loaded.Entries, format); err != nil {
		log.Warn("Export of %q as %s interrupted: %v", loaded.Name, format, err)
	}
}

// handleCaptions serves the sequence as a WebVTT text track. No subtitles
// yields an empty track.
func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	var entries []subtitle.Entry
	if loaded := sessionFrom(r).File(); loaded != nil {
		entries = loaded.Entries
	}
	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := subtitle.WriteCaptions(w, entries); err != nil {
		log.Warn("Captions write interrupted: %v", err)
	}
}

type timeRequest struct {
	Generation uint64 `json:"generation"`
	TimeMs     int64  `json:"time_ms"`
}

type timeResponse struct {
	Generation uint64 `json:"generation"`
	ActiveID   int    `json:"active_id"`
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	active, err := sessionFrom(r).Advance(req.Generation, req.TimeMs)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timeResponse{Generation: req.Generation, ActiveID: active})
}

type seekRequest struct {
	EntryID int    `json:"entry_id"`
	TimeMs  *int64 `json:"time_ms,omitempty"`
}

type seekResponse struct {
	TimeMs int64 `json:"time_ms"`
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	sess := sessionFrom(r)

	switch {
	case req.EntryID != 0:
		ms, err := sess.SeekTo(r.Context(), req.EntryID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, seekResponse{TimeMs: ms})
	case req.TimeMs != nil:
		if err := sess.SeekTime(r.Context(), *req.TimeMs); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, seekResponse{TimeMs: max(*req.TimeMs, 0)})
	default:
		writeError(w, http.StatusBadRequest, "entry_id or time_ms is required")
	}
}

type sessionPositionRequest struct {
	TimeMs int64 `json:"time_ms"`
}

func (s *Server) handleSaveSessionPosition(w http.ResponseWriter, r *http.Request) {
	var req sessionPositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	err := sessionFrom(r).SavePosition(r.Context(), req.TimeMs)
	if err != nil && !storageFailure(err, "Saving session position") {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleForgetSessionPosition(w http.ResponseWriter, r *http.Request) {
	err := sessionFrom(r).ForgetPosition(r.Context())
	if err != nil && !storageFailure(err, "Forgetting session position") {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storageFailure logs err when it comes from the position store. Session
// endpoints keep working while the store is down.
func storageFailure(err error, action string) bool {
	var se *position.StorageError
	if !errors.As(err, &se) {
		return false
	}
	log.Warn("%s failed: %v", action, err)
	return true
}
