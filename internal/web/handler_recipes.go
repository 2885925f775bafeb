package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/larder/internal/domain"
)

// availableRequest carries the ingredient names on hand. Omitting
// "available" means "use what is in stock".
type availableRequest struct {
	Available []string `json:"available"`
}

type suggestResponse struct {
	Recipe     string   `json:"recipe"`
	Confidence float64  `json:"confidence"`
	Missing    []string `json:"missing"`
}

type recipeResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Ingredients []string  `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
}

type createRecipeRequest struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
}

func toRecipeResponses(recipes []domain.Recipe) []recipeResponse {
	out := make([]recipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, recipeResponse{ID: r.ID, Name: r.Name, Ingredients: r.Ingredients, CreatedAt: r.CreatedAt})
	}
	return out
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req availableRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	sug, err := s.service.SuggestRecipe(r.Context(), req.Available)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	missing := sug.Missing
	if missing == nil {
		missing = []string{}
	}
	s.writeJSON(w, http.StatusOK, suggestResponse{Recipe: sug.Name, Confidence: sug.Confidence, Missing: missing})
}

func (s *Server) handleMakeable(w http.ResponseWriter, r *http.Request) {
	var req availableRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	recipes, err := s.service.ListMakeableRecipes(r.Context(), req.Available)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	var req availableRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	missing, err := s.service.MissingIngredients(r.Context(), r.PathValue("name"), req.Available)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if missing == nil {
		missing = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"missing": missing})
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.service.ListRecipes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req createRecipeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	recipe, err := s.service.AddRecipe(r.Context(), req.Name, req.Ingredients)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toRecipeResponses([]domain.Recipe{*recipe})[0])
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecipe(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
