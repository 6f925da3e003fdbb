package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/rosterdq/internal/engine"
	"github.com/leapstack-labs/rosterdq/internal/report"
)

func (s *Server) routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/intents", s.handleIntents)
		r.Get("/report", s.handleReport)
		r.Post("/load", s.handleLoad)
		r.Post("/query", s.handleQuery)
	})
}

type healthResponse struct {
	Status       string    `json:"status"`
	Loaded       bool      `json:"loaded"`
	SnapshotID   string    `json:"snapshot_id,omitempty"`
	LoadedAt     time.Time `json:"loaded_at,omitzero"`
	Rows         int       `json:"rows,omitempty"`
	OverallScore float64   `json:"overall_score,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if snap, ok := s.session.Snapshot(); ok {
		resp.Loaded = true
		resp.SnapshotID = snap.ID
		resp.LoadedAt = snap.LoadedAt
		resp.Rows = len(snap.Providers)
		resp.OverallScore = snap.Overall
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type intentResponse struct {
	Name        string `json:"name"`
	Params      string `json:"params,omitempty"`
	Description string `json:"description"`
}

func (s *Server) handleIntents(w http.ResponseWriter, _ *http.Request) {
	infos := engine.Intents()
	out := make([]intentResponse, len(infos))
	for i, info := range infos {
		out[i] = intentResponse{Name: info.Name, Params: info.Params, Description: info.Description}
	}
	s.writeJSON(w, http.StatusOK, out)
}

type loadResponse struct {
	SnapshotID   string    `json:"snapshot_id"`
	LoadedAt     time.Time `json:"loaded_at"`
	Rows         int       `json:"rows"`
	OverallScore float64   `json:"overall_score"`
}

func (s *Server) handleLoad(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.Load(s.spec); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	snap, _ := s.session.Snapshot()
	s.writeJSON(w, http.StatusOK, loadResponse{
		SnapshotID:   snap.ID,
		LoadedAt:     snap.LoadedAt,
		Rows:         len(snap.Providers),
		OverallScore: snap.Overall,
	})
}

type queryRequest struct {
	Intent string         `json:"intent"`
	Params map[string]any `json:"params"`
}

type queryResponse struct {
	Intent  string           `json:"intent"`
	Kind    string           `json:"kind"`
	Value   any              `json:"value,omitempty"`
	Columns []string         `json:"columns,omitempty"`
	Records []map[string]any `json:"records,omitempty"`
	Rows    int              `json:"rows,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	res, err := s.session.RunQuery(req.Intent, req.Params)
	if err != nil {
		s.writeError(w, statusForQueryError(err), err)
		return
	}

	resp := queryResponse{Intent: res.Intent}
	if v, ok := res.Scalar(); ok {
		resp.Kind = "scalar"
		resp.Value = v
	} else {
		resp.Kind = "table"
		resp.Columns = res.Table.Columns
		resp.Records = res.Table.Records()
		resp.Rows = len(res.Table.Rows)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.session.Snapshot()
	if !ok {
		s.writeError(w, http.StatusConflict, engine.ErrNoData)
		return
	}
	s.writeJSON(w, http.StatusOK, report.Build(snap, time.Now()))
}

func statusForQueryError(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownIntent), errors.Is(err, engine.ErrBadParam):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoData):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
