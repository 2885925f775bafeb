package recipeml

import (
	"errors"
	"fmt"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/tree"
)

// DefaultParams keep the tree from memorising a single-recipe leaf at every
// depth on tiny catalogs.
var DefaultParams = tree.Params{MaxDepth: 10, MinSamplesSplit: 2, Seed: 42}

// Model is a trained recipe classifier bound to the vocabulary it was
// encoded with. It is immutable and safe for concurrent use.
type Model struct {
	vocab    Vocabulary
	tree     *tree.Classifier
	recipes  map[string]domain.Recipe
	accuracy float64
}

// Suggestion is the classifier's best guess with what is still missing to
// actually cook it.
type Suggestion struct {
	Name       string
	Confidence float64
	Missing    []string
}

// Train encodes recipes and fits the classifier. The whole catalog is
// consumed up front; a failure returns no model.
func Train(recipes []domain.Recipe, params tree.Params) (*Model, error) {
	if len(recipes) == 0 {
		return nil, domain.ErrInsufficientData
	}

	vocab := BuildVocabulary(recipes)
	if vocab.Len() == 0 {
		return nil, fmt.Errorf("%w: catalog has no ingredients", domain.ErrInsufficientData)
	}
	X, y := Encode(recipes, vocab)

	clf, err := tree.Fit(X, y, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fit recipe tree: %w", err)
	}
	acc, err := clf.Accuracy(X, y)
	if err != nil {
		return nil, fmt.Errorf("failed to score recipe tree: %w", err)
	}

	byName := make(map[string]domain.Recipe, len(recipes))
	for _, r := range recipes {
		if _, ok := byName[r.Name]; !ok {
			byName[r.Name] = r
		}
	}

	return &Model{vocab: vocab, tree: clf, recipes: byName, accuracy: acc}, nil
}

func (m *Model) Vocabulary() Vocabulary { return m.vocab }

// Fingerprint identifies the catalog the model was trained on.
func (m *Model) Fingerprint() string { return m.vocab.Fingerprint() }

// TrainingAccuracy is the share of catalog rows the tree classifies back to
// their own recipe.
func (m *Model) TrainingAccuracy() float64 { return m.accuracy }

// Predict classifies a vector already aligned to the model's vocabulary.
func (m *Model) Predict(vector []float64) (string, float64, error) {
	name, conf, err := m.tree.Predict(vector)
	if err != nil {
		var we *tree.WidthError
		if errors.As(err, &we) {
			return "", 0, &domain.FeatureMismatchError{Want: we.Want, Got: we.Got}
		}
		return "", 0, err
	}
	return name, conf, nil
}

// Suggest encodes available through the model's own vocabulary and returns
// the best recipe along with its missing ingredients.
func (m *Model) Suggest(available []string) (Suggestion, error) {
	name, conf, err := m.Predict(m.vocab.Vector(available))
	if err != nil {
		return Suggestion{}, err
	}
	return Suggestion{
		Name:       name,
		Confidence: conf,
		Missing:    MissingFor(m.recipes[name], NewAvailableSet(available)),
	}, nil
}
