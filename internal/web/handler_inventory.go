package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vbonduro/propinv/internal/domain"
)

const maxJSONBody = 1 << 20 // 1 MB

type inventorySummary struct {
	ID          string        `json:"id"`
	Address     string        `json:"address"`
	ClientName  string        `json:"clientName"`
	Status      domain.Status `json:"status"`
	DateCreated time.Time     `json:"dateCreated"`
	DateUpdated time.Time     `json:"dateUpdated"`
}

type answerCheckRequest struct {
	Answer  domain.Answer `json:"answer"`
	Comment *string       `json:"comment,omitempty"`
}

type vaultEntry struct {
	Ordinal   int       `json:"ordinal"`
	PhotoID   string    `json:"photoId"`
	RoomID    string    `json:"roomId"`
	RoomName  string    `json:"roomName"`
	ItemID    string    `json:"itemId"`
	ItemName  string    `json:"itemName"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Catalog())
}

func (s *Server) handleListInventories(w http.ResponseWriter, r *http.Request) {
	inventories, err := s.service.ListInventories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]inventorySummary, 0, len(inventories))
	for _, inv := range inventories {
		out = append(out, inventorySummary{
			ID:          inv.ID,
			Address:     inv.Address,
			ClientName:  inv.ClientName,
			Status:      inv.Status,
			DateCreated: inv.DateCreated,
			DateUpdated: inv.DateUpdated,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.CreateInventory(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/inventories/"+inv.ID)
	s.writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.GetInventory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateFields(w http.ResponseWriter, r *http.Request) {
	var patch domain.FieldPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.UpdateFields(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleAnswerCheck(w http.ResponseWriter, r *http.Request) {
	var req answerCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.AnswerCheck(r.Context(), r.PathValue("id"), r.PathValue("checkID"), req.Answer, req.Comment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch domain.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.UpdateItem(r.Context(), r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.RemovePhoto(r.Context(), r.PathValue("id"), r.PathValue("roomID"), r.PathValue("itemID"), r.PathValue("photoID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.Lock(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := s.service.Vault(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]vaultEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, vaultEntry{
			Ordinal:   e.Ordinal,
			PhotoID:   e.Photo.ID,
			RoomID:    e.RoomID,
			RoomName:  e.RoomName,
			ItemID:    e.ItemID,
			ItemName:  e.ItemName,
			Timestamp: e.Photo.Timestamp,
			URL:       fmt.Sprintf("/inventories/%s/photos/%s", id, e.Photo.ID),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	_, rep, err := s.service.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	inv, rep, err := s.service.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	manifest, err := s.exporter.Export(r.Context(), inv, rep)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, manifest)
}

// handleLastExport returns the manifest of the latest finished export, read
// back from the blob store.
func (s *Server) handleLastExport(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.exporter.LastExport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, manifest)
}

// decodeJSON reads a bounded JSON body into dst. Malformed bodies and unknown
// fields are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, domain.ErrValidation)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

// writeError maps engine errors to HTTP statuses. Internal failures are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLocked), errors.Is(err, domain.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
