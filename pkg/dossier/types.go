// Package dossier models legislative proceedings: bills (Texte), their
// readings (Lecture) and the proceeding that groups them (Dossier). It
// extracts readings from the nested procedure trees published as open
// data by the Assemblée nationale.
package dossier

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// Chambre identifies a house of Parliament.
type Chambre string

const (
	// AN is the Assemblée nationale, the lower house.
	AN Chambre = "an"
	// Senat is the Sénat.
	Senat Chambre = "senat"
)

// ParseChambre converts a user or upstream label into a Chambre.
func ParseChambre(label string) (Chambre, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "an", "assemblee", "assemblée", "assemblée nationale":
		return AN, nil
	case "senat", "sénat", "sn":
		return Senat, nil
	}
	return "", fmt.Errorf("unknown chambre %q", label)
}

// String returns the display name of the chamber.
func (c Chambre) String() string {
	switch c {
	case AN:
		return "Assemblée nationale"
	case Senat:
		return "Sénat"
	}
	return string(c)
}

// TypeTexte is the kind of bill.
type TypeTexte string

const (
	// Projet is a government bill ("projet de loi").
	Projet TypeTexte = "projet de loi"
	// Proposition is a private member's bill ("proposition de loi").
	Proposition TypeTexte = "proposition de loi"
)

// Texte is one version of a bill, identified by its stable upstream uid.
type Texte struct {
	UID        string     `json:"uid"`
	Type       TypeTexte  `json:"type"`
	Numero     int        `json:"numero"`
	TitreLong  string     `json:"titre_long"`
	TitreCourt string     `json:"titre_court"`
	DateDepot  *time.Time `json:"date_depot,omitempty"`
}

// Lecture is one reading of a Texte in one chamber.
type Lecture struct {
	Chambre Chambre `json:"chambre"`
	Titre   string  `json:"titre"`
	Texte   Texte   `json:"texte"`
}

// String renders e.g. "Sénat – Première lecture – Séance publique
// (texte nº 63 déposé le 06/11/2017)".
func (l Lecture) String() string {
	description := fmt.Sprintf("%s – %s (texte nº %d", l.Chambre, l.Titre, l.Texte.Numero)
	if l.Texte.DateDepot != nil {
		description += " déposé le " + l.Texte.DateDepot.Format("02/01/2006")
	}
	return description + ")"
}

// Lectures is an insertion-ordered mapping from Texte uid to Lecture.
// Overwriting an existing uid replaces the value but keeps its position.
type Lectures struct {
	order []string
	byUID map[string]Lecture
}

// NewLectures returns an empty mapping.
func NewLectures() *Lectures {
	return &Lectures{byUID: make(map[string]Lecture)}
}

// Set inserts or replaces the lecture for uid.
func (l *Lectures) Set(uid string, lecture Lecture) {
	if l.byUID == nil {
		l.byUID = make(map[string]Lecture)
	}
	if _, exists := l.byUID[uid]; !exists {
		l.order = append(l.order, uid)
	}
	l.byUID[uid] = lecture
}

// Get returns the lecture stored for uid.
func (l *Lectures) Get(uid string) (Lecture, bool) {
	lecture, ok := l.byUID[uid]
	return lecture, ok
}

// Len returns the number of lectures.
func (l *Lectures) Len() int { return len(l.order) }

// Keys returns the Texte uids in discovery order.
func (l *Lectures) Keys() []string {
	return append([]string(nil), l.order...)
}

// All iterates over (uid, lecture) pairs in discovery order.
func (l *Lectures) All() iter.Seq2[string, Lecture] {
	return func(yield func(string, Lecture) bool) {
		for _, uid := range l.order {
			if !yield(uid, l.byUID[uid]) {
				return
			}
		}
	}
}

// Dossier is a legislative proceeding and the readings it contains.
type Dossier struct {
	UID      string    `json:"uid"`
	Titre    string    `json:"titre"`
	Lectures *Lectures `json:"-"`
}
