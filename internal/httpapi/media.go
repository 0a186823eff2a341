package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/subview/internal/library"
	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/internal/viewer"
	"github.com/MimeLyc/subview/pkg/log"
)

// setVideo records the video for a session. The previous file is removed
// when it was an upload. An empty video clears the entry.
func (s *Server) setVideo(id string, v video) {
	s.mu.Lock()
	prev, ok := s.videos[id]
	if v.path == "" {
		delete(s.videos, id)
	} else {
		s.videos[id] = v
	}
	s.mu.Unlock()

	if ok && prev.owned && prev.path != v.path {
		if err := os.Remove(prev.path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove upload %s: %v", prev.path, err)
		}
	}
}

func (s *Server) videoFor(id string) (video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	return v, ok
}

// handleUploadVideo streams a multipart "file" field (or a raw body with
// ?name=) to the upload directory and attaches it as the session's media.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	name := r.URL.Query().Get("name")
	var src io.Reader = r.Body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		mr, err := r.MultipartReader()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				writeError(w, http.StatusBadRequest, "missing file field")
				return
			}
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if part.FormName() == "file" {
				if name == "" {
					name = part.FileName()
				}
				src = part
				break
			}
		}
	}
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "name query parameter is required for raw uploads")
		return
	}
	name = cleanName(name)
	if name == "." || name == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	dir := filepath.Join(s.uploadDir, sess.ID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeErr(w, fmt.Errorf("create upload dir: %w", err))
		return
	}
	dst := filepath.Join(dir, name)
	tmp := dst + ".part"
	if err := writeFile(tmp, src); err != nil {
		_ = os.Remove(tmp)
		writeErr(w, err)
		return
	}
	if err := os.Rename(tmp, dst); err != nil {
		writeErr(w, err)
		return
	}

	s.setVideo(sess.ID(), video{path: dst, owned: true})
	sess.AttachMedia("upload:"+name, viewer.NewRemoteMedia())
	log.Info("Session %s attached uploaded video %q", sess.ID(), name)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func writeFile(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// handleServeVideo serves the attached video with range support.
func (s *Server) handleServeVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := s.videoFor(sessionFrom(r).ID())
	if !ok {
		writeErr(w, viewer.ErrMediaUnavailable)
		return
	}
	f, err := os.Open(v.path)
	if err != nil {
		writeError(w, http.StatusNotFound, "video file is gone")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeErr(w, err)
		return
	}
	http.ServeContent(w, r, filepath.Base(v.path), info.ModTime(), f)
}

type openRequest struct {
	VideoPath    string `json:"video_path"`
	SubtitlePath string `json:"subtitle_path"`
}

// handleOpen loads a video and/or subtitle file from the media library.
// Paths are relative to the library root.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeError(w, http.StatusNotFound, "media library is not configured")
		return
	}
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.VideoPath == "" && req.SubtitlePath == "" {
		writeError(w, http.StatusBadRequest, "video_path or subtitle_path is required")
		return
	}
	sess := sessionFrom(r)

	var file *subtitle.File
	if req.SubtitlePath != "" {
		abs, err := s.existingLibraryPath(req.SubtitlePath)
		if err != nil {
			writeErr(w, err)
			return
		}
		file, err = subtitle.NewReader(abs).Read()
		if err != nil {
			var fe *subtitle.FormatError
			if errors.As(err, &fe) {
				writeErr(w, err)
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.VideoPath != "" {
		abs, err := s.existingLibraryPath(req.VideoPath)
		if err != nil {
			writeErr(w, err)
			return
		}
		s.setVideo(sess.ID(), video{path: abs})
		sess.AttachMedia("library:"+req.VideoPath, viewer.NewRemoteMedia())
	}
	if file != nil {
		sess.LoadFile(r.Context(), file)
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

var errLibraryFileMissing = errors.New("file not found in media library")

func (s *Server) existingLibraryPath(rel string) (string, error) {
	abs, err := s.scanner.Resolve(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", errLibraryFileMissing, rel)
	}
	return abs, nil
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeJSON(w, http.StatusOK, library.Library{Pairs: []library.Pair{}})
		return
	}
	lib, err := s.scanner.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner != nil {
		s.scanner.Invalidate()
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ok": true,
	})
}
