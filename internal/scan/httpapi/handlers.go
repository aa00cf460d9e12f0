package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/intake"
	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/service"
)

const (
	multipartOverhead = 1 << 20
	maxUploadBody     = models.MaxUploadBytes + multipartOverhead
	maxJSONBody       = 64 << 10
)

type Handler struct {
	svc    *service.Service
	logger zerolog.Logger
}

func New(svc *service.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.CreateSession(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(snap))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

// UploadFile selects the multipart "file" part and starts its submission.
// With ?wait=true the response is sent once the submission settled.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	wait, err := boolQuery(r, "wait")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid wait parameter")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, models.TooLarge.Message())
			return
		}
		writeErrorJSON(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	cand, err := intake.CandidateFromMultipart(firstFile(r, "file"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if _, err := h.svc.SelectFile(r.Context(), id, cand); err != nil {
		h.writeServiceError(w, err)
		return
	}

	snap, err := h.svc.Submit(r.Context(), id, wait)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !wait {
		status = http.StatusAccepted
	}
	writeJSON(w, status, toSessionResponse(snap))
}

func (h *Handler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.RemoveFile(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (h *Handler) SetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var req SetHistoryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	snap, err := h.svc.SetHistory(r.Context(), id, req.History, req.Language)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

// GetRecommendation derives the recommendation for the session and blocks
// until it settled. ?refresh=true re-fetches an unchanged key.
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	refresh, err := boolQuery(r, "refresh")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid refresh parameter")
		return
	}

	st, err := h.svc.Recommendation(r.Context(), id, refresh)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.svc.EndSession(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorJSON(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrNoFileSelected):
		writeErrorJSON(w, http.StatusConflict, "no file selected")
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, http.StatusConflict, "conflict")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorJSON(w, http.StatusServiceUnavailable, "request canceled")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		writeErrorJSON(w, http.StatusBadRequest, "missing id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func firstFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
