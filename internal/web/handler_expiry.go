package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/service"
)

type predictionResponse struct {
	ID         int64   `json:"id,omitempty"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Storage    string  `json:"storage"`
	DaysSince  int     `json:"days_since"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type bucketsResponse struct {
	AsOf       string               `json:"as_of"`
	Safe       []predictionResponse `json:"safe"`
	ExpireSoon []predictionResponse `json:"expire_soon"`
	Expired    []predictionResponse `json:"expired"`
}

type classifyRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Storage    string `json:"storage"`
	AcquiredOn string `json:"acquired_on"`
}

func toPrediction(p expiryml.Prediction) predictionResponse {
	return predictionResponse{
		ID:         p.Item.ID,
		Name:       p.Item.Name,
		Category:   string(p.Item.Category),
		Storage:    string(p.Item.Storage),
		DaysSince:  p.DaysSince,
		Label:      string(p.Label),
		Confidence: p.Confidence,
	}
}

func toPredictions(preds []expiryml.Prediction) []predictionResponse {
	out := make([]predictionResponse, 0, len(preds))
	for _, p := range preds {
		out = append(out, toPrediction(p))
	}
	return out
}

func (s *Server) handleExpiry(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	buckets, err := s.service.ClassifyInventoryExpiry(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bucketsResponse{
		AsOf:       asOf.Format(time.DateOnly),
		Safe:       toPredictions(buckets.Safe),
		ExpireSoon: toPredictions(buckets.ExpireSoon),
		Expired:    toPredictions(buckets.Expired),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	var req classifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	acquired, err := parseDate(req.AcquiredOn)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	pred, err := s.service.ClassifySingleExpiry(r.Context(), domain.InventoryItem{
		Name:       req.Name,
		Category:   domain.Category(req.Category),
		Storage:    domain.StorageLocation(req.Storage),
		AcquiredOn: acquired,
	}, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPrediction(pred))
}

type dateStatusResponse struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	ExpiresOn string `json:"expires_on,omitempty"`
	DaysLeft  *int   `json:"days_left,omitempty"`
	Label     string `json:"label"`
	// Confidence is only set when the label came from the model.
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source"`
}

func expiresOn(it domain.InventoryItem) string {
	if it.ExpiresOn == nil {
		return ""
	}
	return it.ExpiresOn.Format(time.DateOnly)
}

func (s *Server) handleExpiryDates(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	statuses, err := s.service.ExpiryByDate(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dateStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		days := st.DaysLeft
		out = append(out, dateStatusResponse{
			ID:        st.Item.ID,
			Name:      st.Item.Name,
			ExpiresOn: expiresOn(st.Item),
			DaysLeft:  &days,
			Label:     string(st.Label),
			Source:    service.StatusFromDate,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleItemExpiry(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		s.badRequest(w, "name is required")
		return
	}

	statuses, err := s.service.ItemExpiry(r.Context(), name, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dateStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, dateStatusResponse{
			ID:         st.Item.ID,
			Name:       st.Item.Name,
			ExpiresOn:  expiresOn(st.Item),
			DaysLeft:   st.DaysLeft,
			Label:      string(st.Label),
			Confidence: st.Confidence,
			Source:     st.Source,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}
