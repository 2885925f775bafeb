package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/service"
)

type itemResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Storage    string  `json:"storage"`
	Category   string  `json:"category"`
	Cost       float64 `json:"cost"`
	AcquiredOn string  `json:"acquired_on"`
	ExpiresOn  string  `json:"expires_on,omitempty"`
}

type createItemRequest struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Storage    string  `json:"storage"`
	Category   string  `json:"category"`
	Cost       float64 `json:"cost"`
	AcquiredOn string  `json:"acquired_on"`
	ExpiresOn  string  `json:"expires_on"`
}

type useItemRequest struct {
	Amount float64 `json:"amount"`
}

func toItem(it domain.InventoryItem) itemResponse {
	out := itemResponse{
		ID:         it.ID,
		Name:       it.Name,
		Quantity:   it.Quantity,
		Unit:       it.Unit,
		Storage:    string(it.Storage),
		Category:   string(it.Category),
		Cost:       it.Cost,
		AcquiredOn: it.AcquiredOn.Format(time.DateOnly),
	}
	if it.ExpiresOn != nil {
		out.ExpiresOn = it.ExpiresOn.Format(time.DateOnly)
	}
	return out
}

func toItems(items []domain.InventoryItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItem(it))
	}
	return out
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toItems(items))
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	in := service.NewItem{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Storage:  req.Storage,
		Category: req.Category,
		Cost:     req.Cost,
	}
	if req.AcquiredOn != "" {
		acquired, err := parseDate(req.AcquiredOn)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		in.AcquiredOn = acquired
	}
	if req.ExpiresOn != "" {
		expires, err := parseDate(req.ExpiresOn)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		in.ExpiresOn = &expires
	}

	item, err := s.service.AddItem(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toItem(*item))
}

func (s *Server) handleUseItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.badRequest(w, "invalid item id")
		return
	}
	var req useItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	item, err := s.service.UseItem(r.Context(), id, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, toItem(*item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.badRequest(w, "invalid item id")
		return
	}
	if err := s.service.RemoveItem(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiscardExpired(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	discarded, err := s.service.DiscardExpired(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]itemResponse{"discarded": toItems(discarded)})
}
