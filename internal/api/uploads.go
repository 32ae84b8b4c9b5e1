package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/blob"
	"github.com/meur/tiermaker/internal/models"
	"github.com/meur/tiermaker/internal/upload"
)

// multipartOverhead is the room left in the request body for boundaries,
// part headers and the optional text fields
const multipartOverhead = 1 << 20

// maxFieldSize caps the optional name and description fields
const maxFieldSize = 4 << 10

// uploadForm is the parsed multipart request
type uploadForm struct {
	data        []byte
	contentType string
	hasFile     bool
	name        string
	description string
}

// handleUpload validates an image entirely in memory, then stores it under a
// generated name
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxSize+multipartOverhead)

	form, err := readUploadForm(r)
	if err != nil {
		s.log.Debug("upload rejected", zap.Error(err))
		respondError(w, statusForError(err), messageForError(err))
		return
	}
	if !form.hasFile {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}

	contentType, err := upload.Validate(form.contentType, form.data)
	if err != nil {
		s.log.Debug("upload rejected",
			zap.String("declared_type", form.contentType),
			zap.Int("size", len(form.data)),
			zap.Error(err))
		respondError(w, statusForError(err), messageForError(err))
		return
	}

	name := upload.NewName(contentType)
	if err := s.store.Put(r.Context(), name, form.data, contentType); err != nil {
		s.log.Error("failed to store upload", zap.String("file", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	imageURL := s.publicURL(r, name)
	s.log.Info("uploaded file saved",
		zap.String("file", name),
		zap.String("url", imageURL),
		zap.String("content_type", contentType),
		zap.Int("size", len(form.data)))

	respondJSON(w, http.StatusOK, models.UploadResponse{ID: name, ImageURL: imageURL})
}

// readUploadForm streams the multipart body so that nothing is spooled to
// disk. Only the first "file" part is kept
func readUploadForm(r *http.Request) (uploadForm, error) {
	var form uploadForm
	mr, err := r.MultipartReader()
	if err != nil {
		return form, errMalformed
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return form, nil
		}
		if err != nil {
			return form, bodyError(err)
		}

		switch part.FormName() {
		case "file":
			if form.hasFile {
				break
			}
			if part.FileName() == "" && part.Header.Get("Content-Type") == "" {
				break
			}
			data, err := upload.ReadLimited(part)
			if err != nil {
				part.Close()
				return form, bodyError(err)
			}
			form.data = data
			form.contentType = part.Header.Get("Content-Type")
			form.hasFile = true
		case "name":
			form.name, err = readField(part)
		case "description":
			form.description, err = readField(part)
		}
		part.Close()
		if err != nil {
			return form, bodyError(err)
		}
	}
}

func readField(part io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// bodyError turns a body read failure into a size or format error
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return upload.ErrTooLarge
	}
	if errors.Is(err, upload.ErrTooLarge) {
		return err
	}
	return errMalformed
}

// handleDeleteUpload removes a previously uploaded file by its generated name
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "filename")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid file name")
		return
	}
	if err := blob.ValidateName(name); err != nil {
		s.log.Warn("delete rejected", zap.String("file", name), zap.Error(err))
		respondError(w, http.StatusBadRequest, "Invalid file name")
		return
	}

	if err := s.store.Delete(r.Context(), name); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("failed to delete upload", zap.String("file", name), zap.Error(err))
			respondError(w, status, "Failed to delete file")
			return
		}
		s.log.Debug("delete refused", zap.String("file", name), zap.Error(err))
		respondError(w, status, messageForError(err))
		return
	}

	s.log.Info("deleted uploaded file", zap.String("file", name))
	respondJSON(w, http.StatusOK, models.DeleteResponse{Deleted: true})
}

// handleServeUpload streams a stored image
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "filename")
	if err != nil || blob.ValidateName(name) != nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}

	rc, info, err := s.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrOutsideRoot) {
			respondError(w, http.StatusNotFound, "File not found")
			return
		}
		s.log.Error("failed to open upload", zap.String("file", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, info.ModTime, rs)
		return
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		io.Copy(w, rc)
	}
}

// publicURL builds the absolute URL a stored file is served from
func (s *Server) publicURL(r *http.Request, name string) string {
	base := s.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		} else if s.trustProxy && r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/uploads/" + name
}
