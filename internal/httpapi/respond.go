package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MimeLyc/subview/internal/library"
	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/internal/timecode"
	"github.com/MimeLyc/subview/internal/viewer"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

// writeErr maps domain errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	var subErr *subtitle.FormatError
	if errors.As(err, &subErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(),
			"block": subErr.Block,
			"line":  subErr.Line,
		})
		return
	}
	writeError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	var (
		subErr     *subtitle.FormatError
		tcErr      *timecode.FormatError
		storageErr *position.StorageError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &subErr), errors.As(err, &tcErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, viewer.ErrMediaUnavailable),
		errors.Is(err, viewer.ErrStaleGeneration),
		errors.Is(err, viewer.ErrNoSubtitles):
		return http.StatusConflict
	case errors.Is(err, viewer.ErrSessionNotFound),
		errors.Is(err, viewer.ErrEntryNotFound),
		errors.Is(err, errLibraryFileMissing):
		return http.StatusNotFound
	case errors.Is(err, position.ErrEmptyKey),
		errors.Is(err, library.ErrOutsideRoot),
		errors.Is(err, subtitle.ErrUnknownOutput):
		return http.StatusBadRequest
	case errors.As(err, &storageErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
