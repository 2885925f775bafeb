// Package recipeml turns a recipe catalog into binary ingredient features,
// trains the recipe classifier on them and answers exact feasibility
// questions against the raw catalog.
package recipeml

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/vbonduro/larder/internal/domain"
)

// ParseIngredients splits a comma-delimited ingredient list and normalises
// each token with NormalizeName. Case is preserved; empty and repeated tokens
// are dropped.
func ParseIngredients(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		name := NormalizeName(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// NormalizeName collapses inner whitespace and trims the ends of a recipe
// name, an ingredient token or an item name. Every comparison between recipe
// ingredients and stock goes through it.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Vocabulary is the ordered set of ingredient columns, tagged with a
// fingerprint of the catalog it was built from.
type Vocabulary struct {
	terms       []string
	index       map[string]int
	fingerprint string
}

// BuildVocabulary collects every distinct ingredient across recipes in
// lexicographic order.
func BuildVocabulary(recipes []domain.Recipe) Vocabulary {
	index := make(map[string]int)
	var terms []string
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			name := NormalizeName(ing)
			if name == "" {
				continue
			}
			if _, ok := index[name]; !ok {
				index[name] = 0
				terms = append(terms, name)
			}
		}
	}
	slices.Sort(terms)
	for i, t := range terms {
		index[t] = i
	}
	return Vocabulary{terms: terms, index: index, fingerprint: Fingerprint(recipes)}
}

// Fingerprint hashes the catalog independently of input order, so two
// catalogs with the same recipes always agree.
func Fingerprint(recipes []domain.Recipe) string {
	lines := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ings := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			if name := NormalizeName(ing); name != "" {
				ings = append(ings, name)
			}
		}
		lines = append(lines, NormalizeName(r.Name)+"\x1f"+strings.Join(ings, "\x1e"))
	}
	slices.Sort(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (v Vocabulary) Len() int { return len(v.terms) }

// Terms returns a copy of the column names in order.
func (v Vocabulary) Terms() []string { return slices.Clone(v.terms) }

func (v Vocabulary) Fingerprint() string { return v.fingerprint }

// Contains reports whether name is a vocabulary column.
func (v Vocabulary) Contains(name string) bool {
	_, ok := v.index[NormalizeName(name)]
	return ok
}

// Vector maps available ingredient names onto the vocabulary. Names outside
// the vocabulary have no column and are ignored.
func (v Vocabulary) Vector(available []string) []float64 {
	row := make([]float64, len(v.terms))
	for _, name := range available {
		if i, ok := v.index[NormalizeName(name)]; ok {
			row[i] = 1
		}
	}
	return row
}

// Encode produces one binary row per recipe, in catalog order, with the
// recipe names as the parallel label slice.
func Encode(recipes []domain.Recipe, vocab Vocabulary) ([][]float64, []string) {
	matrix := make([][]float64, 0, len(recipes))
	labels := make([]string, 0, len(recipes))
	for _, r := range recipes {
		matrix = append(matrix, vocab.Vector(r.Ingredients))
		labels = append(labels, r.Name)
	}
	return matrix, labels
}
