package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/service"
)

type wasteResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Reason      string  `json:"reason"`
	Cost        float64 `json:"cost"`
	DiscardedOn string  `json:"discarded_on"`
}

type logWasteRequest struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Reason      string  `json:"reason"`
	Cost        float64 `json:"cost"`
	DiscardedOn string  `json:"discarded_on"`
}

func toWaste(e domain.WasteEntry) wasteResponse {
	return wasteResponse{
		ID:          e.ID,
		Name:        e.Name,
		Quantity:    e.Quantity,
		Unit:        e.Unit,
		Reason:      string(e.Reason),
		Cost:        e.Cost,
		DiscardedOn: e.DiscardedOn.Format(time.DateOnly),
	}
}

func (s *Server) handleListWaste(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListWaste(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]wasteResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toWaste(e))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLogWaste(w http.ResponseWriter, r *http.Request) {
	var req logWasteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	in := service.NewWaste{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Reason:   req.Reason,
		Cost:     req.Cost,
	}
	if req.DiscardedOn != "" {
		day, err := parseDate(req.DiscardedOn)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		in.DiscardedOn = day
	}

	entry, err := s.service.LogWaste(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toWaste(*entry))
}

func (s *Server) handleDeleteWaste(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.badRequest(w, "invalid waste id")
		return
	}
	if err := s.service.DeleteWaste(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
