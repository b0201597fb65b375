package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/imaging"
)

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	return imaging.Sniff(data)
}

type photoResponse struct {
	ID        string    `json:"id"`
	RoomRef   string    `json:"roomRef"`
	ItemRef   string    `json:"itemRef"`
	Timestamp time.Time `json:"timestamp"`
	Bytes     int       `json:"bytes"`
}

// readUpload parses a bounded multipart form and returns the bytes of the
// named file field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", uploadError(err))
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s file required: %w", field, domain.ErrValidation)
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", field, domain.ErrValidation)
	}
	return data, nil
}

// readImageUpload is readUpload restricted to the accepted image formats.
func (s *Server) readImageUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	data, err := s.readUpload(w, r, field)
	if err != nil {
		return nil, err
	}
	if _, ok := allowedImageMIME(data); !ok {
		return nil, fmt.Errorf("unsupported image format: %w", domain.ErrValidation)
	}
	return data, nil
}

// uploadError keeps oversize bodies distinguishable and treats every other
// form failure as bad input.
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%v: %w", err, domain.ErrValidation)
}

func (s *Server) handleSetFrontImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.readImageUpload(w, r, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.SetFrontImage(r.Context(), r.PathValue("id"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.readImageUpload(w, r, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, photo, err := s.service.AttachPhoto(r.Context(), id, r.PathValue("roomID"), r.PathValue("itemID"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/inventories/%s/photos/%s", id, photo.ID))
	s.writeJSON(w, http.StatusCreated, photoResponse{
		ID:        photo.ID,
		RoomRef:   photo.RoomRef,
		ItemRef:   photo.ItemRef,
		Timestamp: photo.Timestamp,
		Bytes:     len(photo.Image),
	})
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := s.service.Photo(r.Context(), r.PathValue("id"), r.PathValue("photoID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	mimeType, ok := allowedImageMIME(photo.Image)
	if !ok {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	if _, err := w.Write(photo.Image); err != nil {
		s.logger.Error("write photo failed", "photo_id", photo.ID, "error", err)
	}
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.UploadDocument(r.Context(), r.PathValue("id"), r.PathValue("docID"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleAddSignature(w http.ResponseWriter, r *http.Request) {
	data, err := s.readImageUpload(w, r, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := r.FormValue("name")
	signer := domain.SignerType(r.FormValue("type"))

	inv, err := s.service.AddSignature(r.Context(), r.PathValue("id"), name, signer, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, inv)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
