package httpapi

import (
	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

type SetHistoryRequest struct {
	History  string `json:"history"`
	Language string `json:"language,omitempty"`
}

type LabelResponse struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	Known       bool   `json:"known"`
	Percent     string `json:"percent"`
}

// SessionResponse is the session snapshot plus a rendered diagnosis once the
// submission succeeded.
type SessionResponse struct {
	workflow.Snapshot
	Diagnosis *LabelResponse `json:"diagnosis,omitempty"`
}

func toSessionResponse(s workflow.Snapshot) SessionResponse {
	resp := SessionResponse{Snapshot: s}
	if r := s.Submission.Result; r != nil {
		l := models.LookupLabel(r.Label)
		resp.Diagnosis = &LabelResponse{
			Code:        l.Code,
			DisplayName: l.DisplayName,
			Known:       l.Known,
			Percent:     r.Percent(),
		}
	}
	return resp
}
