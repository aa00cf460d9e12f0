package httpapi

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /scans", h.CreateSession)
	mux.HandleFunc("GET /scans/{id}", h.GetSession)
	mux.HandleFunc("DELETE /scans/{id}", h.EndSession)

	mux.HandleFunc("POST /scans/{id}/file", h.UploadFile)
	mux.HandleFunc("DELETE /scans/{id}/file", h.RemoveFile)

	mux.HandleFunc("PUT /scans/{id}/history", h.SetHistory)
	mux.HandleFunc("GET /scans/{id}/recommendation", h.GetRecommendation)

	return mux
}
