// Package amendement defines the canonical Amendement value and converts
// raw upstream records (senate deposit CSV rows, discussion-order JSON
// objects, Assemblée nationale liasse XML) into it. Political groups are
// resolved through explicit registries passed by the caller.
package amendement

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

// Reponse holds the operator-entered fields of an amendment. Re-ingestion
// never overwrites them.
type Reponse struct {
	Avis         string
	Observations string
	Reponse      string
}

// IsZero reports whether no response has been entered.
func (r Reponse) IsZero() bool {
	return r == Reponse{}
}

// Amendement is a proposed change to a Texte, reconciled from the
// upstream feeds.
type Amendement struct {
	// Identification of the text.
	Chambre  dossier.Chambre
	Session  string
	NumTexte int
	Organe   string

	// Targeted part of the text.
	Subdiv subdiv.Subdivision
	Alinea string

	Num    int
	Rectif int

	Auteur    string
	Matricule *string
	Groupe    *string

	DateDepot *time.Time

	// Sort is the outcome label; "" while still pending.
	Sort string

	// Discussion order.
	Position          *int
	DiscussionCommune *int
	Identique         bool

	Dispositif string
	Objet      string
	Resume     string

	Reponse Reponse
}

// Scope identifies the set of amendments deposited on one Texte before
// one body. Identity keys never cross scopes.
type Scope struct {
	Chambre  dossier.Chambre
	Session  string
	NumTexte int
	Organe   string
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s/%d/%s", s.Chambre, s.Session, s.NumTexte, s.Organe)
}

// Key is the identity of an amendment. Rectif is not part of it: a
// revision replaces the previous version under the same key.
type Key struct {
	Chambre  dossier.Chambre
	Session  string
	NumTexte int
	Organe   string
	Num      int
}

// Scope returns the key without its amendment number.
func (k Key) Scope() Scope {
	return Scope{Chambre: k.Chambre, Session: k.Session, NumTexte: k.NumTexte, Organe: k.Organe}
}

func (k Key) String() string {
	return k.Scope().String() + "/" + strconv.Itoa(k.Num)
}

// Key returns the identity key of a.
func (a Amendement) Key() Key {
	return Key{Chambre: a.Chambre, Session: a.Session, NumTexte: a.NumTexte, Organe: a.Organe, Num: a.Num}
}

// Scope returns the scope a belongs to.
func (a Amendement) Scope() Scope {
	return a.Key().Scope()
}

// NumDisp renders the amendment number with its revision marker, e.g.
// "230", "230 rect." or "230 rect. bis".
func (a Amendement) NumDisp() string {
	return FormatNum(a.Num, a.Rectif)
}

// FormatNum is the inverse of ParseNum.
func FormatNum(num, rectif int) string {
	text := strconv.Itoa(num)
	switch {
	case rectif <= 0:
		return text
	case rectif == 1:
		return text + " rect."
	case rectif-2 < len(subdiv.Multipliers):
		return text + " rect. " + subdiv.Multipliers[rectif-2]
	}
	return fmt.Sprintf("%s rect. (%d)", text, rectif)
}

// Pending reports whether the amendment has not been disposed of yet.
func (a Amendement) Pending() bool {
	return a.Sort == ""
}

// GroupeOrEmpty returns the political group label, or "".
func (a Amendement) GroupeOrEmpty() string {
	if a.Groupe == nil {
		return ""
	}
	return *a.Groupe
}

// MatriculeOrEmpty returns the author registry key, or "".
func (a Amendement) MatriculeOrEmpty() string {
	if a.Matricule == nil {
		return ""
	}
	return *a.Matricule
}
