// Package subdiv parses free-text French legislative references such as
// "Article 7 bis", "Article additionnel après l'article 3" or "Intitulé du
// projet de loi" into a structured Subdivision.
//
// Parsing is a pure string-to-value mapping: the package holds only
// read-only lookup tables and compiled patterns, so Parse is safe for
// concurrent use.
package subdiv

import (
	"fmt"
	"strings"
)

// Subdivision kinds.
const (
	TypeArticle  = "article"
	TypeChapitre = "chapitre"
	TypeTitre    = "titre"
	TypeSection  = "section"
	TypeAnnexe   = "annexe"
)

// Positional modifiers.
const (
	PosAvant = "avant"
	PosApres = "après"
)

// Subdivision is the structured target of an amendment within a text.
// The zero value designates the whole text (or a non-article target such
// as a motion). Subdivisions are comparable with ==.
type Subdivision struct {
	Type string `json:"type"`
	Num  string `json:"num"`
	Mult string `json:"mult,omitempty"`
	Pos  string `json:"pos,omitempty"`
}

// IsZero reports whether the subdivision is the all-blank value.
func (s Subdivision) IsZero() bool {
	return s == Subdivision{}
}

// String renders the subdivision the way it reads in a bill, e.g.
// "Article 7 bis" or "Article additionnel avant l'article 3".
func (s Subdivision) String() string {
	if s.IsZero() {
		return ""
	}
	reference := strings.TrimSpace(strings.Join([]string{s.Type, s.Num, s.Mult}, " "))
	reference = strings.Join(strings.Fields(reference), " ")
	if s.Pos == "" {
		return capitalize(reference)
	}
	if s.Type == TypeArticle {
		return fmt.Sprintf("Article additionnel %s l'%s", s.Pos, reference)
	}
	return capitalize(fmt.Sprintf("%s %s", s.Pos, reference))
}

// Slug returns the dotted key form "type.num.mult.pos" used to address
// a subdivision in resource paths.
func (s Subdivision) Slug() string {
	return strings.Join([]string{s.Type, s.Num, s.Mult, s.Pos}, ".")
}

// FromSlug is the inverse of Slug.
func FromSlug(slug string) (Subdivision, error) {
	parts := strings.Split(slug, ".")
	if len(parts) != 4 {
		return Subdivision{}, fmt.Errorf("invalid subdivision slug %q: expected 4 parts, got %d", slug, len(parts))
	}
	return Subdivision{Type: parts[0], Num: parts[1], Mult: parts[2], Pos: parts[3]}, nil
}

func capitalize(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
