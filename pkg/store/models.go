package store

import (
	"time"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

// LectureRecord is a reading registered for amendment tracking.
type LectureRecord struct {
	Chambre    string `gorm:"primaryKey"`
	Session    string `gorm:"primaryKey"`
	NumTexte   int    `gorm:"primaryKey;autoIncrement:false"`
	Organe     string `gorm:"primaryKey"`
	Titre      string `gorm:"not null"`
	DossierUID string
	TexteUID   string
	CreatedAt  time.Time
}

// TableName implements gorm's tabler.
func (LectureRecord) TableName() string { return "lectures" }

// Scope returns the amendment scope of the reading.
func (l LectureRecord) Scope() amendement.Scope {
	return amendement.Scope{
		Chambre:  dossier.Chambre(l.Chambre),
		Session:  l.Session,
		NumTexte: l.NumTexte,
		Organe:   l.Organe,
	}
}

// AmendementRecord is the persisted form of an amendement. The identity
// columns form the primary key.
type AmendementRecord struct {
	Chambre  string `gorm:"primaryKey"`
	Session  string `gorm:"primaryKey"`
	NumTexte int    `gorm:"primaryKey;autoIncrement:false"`
	Organe   string `gorm:"primaryKey"`
	Num      int    `gorm:"primaryKey;autoIncrement:false"`

	SubdivType string `gorm:"not null"`
	SubdivNum  string `gorm:"not null"`
	SubdivMult string
	SubdivPos  string
	Alinea     string

	Rectif int `gorm:"not null;default:0"`

	Auteur    string
	Matricule *string
	Groupe    *string // groupe parlementaire

	DateDepot *time.Time
	Sort      string // retiré, adopté, etc.

	Position          *int
	DiscussionCommune *int
	Identique         bool

	Dispositif string
	Objet      string
	Resume     string

	// Operator-entered.
	Avis         string
	Observations string
	Reponse      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's tabler.
func (AmendementRecord) TableName() string { return "amendements" }

func toRecord(a amendement.Amendement) AmendementRecord {
	return AmendementRecord{
		Chambre:           string(a.Chambre),
		Session:           a.Session,
		NumTexte:          a.NumTexte,
		Organe:            a.Organe,
		Num:               a.Num,
		SubdivType:        a.Subdiv.Type,
		SubdivNum:         a.Subdiv.Num,
		SubdivMult:        a.Subdiv.Mult,
		SubdivPos:         a.Subdiv.Pos,
		Alinea:            a.Alinea,
		Rectif:            a.Rectif,
		Auteur:            a.Auteur,
		Matricule:         a.Matricule,
		Groupe:            a.Groupe,
		DateDepot:         a.DateDepot,
		Sort:              a.Sort,
		Position:          a.Position,
		DiscussionCommune: a.DiscussionCommune,
		Identique:         a.Identique,
		Dispositif:        a.Dispositif,
		Objet:             a.Objet,
		Resume:            a.Resume,
		Avis:              a.Reponse.Avis,
		Observations:      a.Reponse.Observations,
		Reponse:           a.Reponse.Reponse,
	}
}

func (r AmendementRecord) toAmendement() amendement.Amendement {
	return amendement.Amendement{
		Chambre:  dossier.Chambre(r.Chambre),
		Session:  r.Session,
		NumTexte: r.NumTexte,
		Organe:   r.Organe,
		Subdiv: subdiv.Subdivision{
			Type: r.SubdivType,
			Num:  r.SubdivNum,
			Mult: r.SubdivMult,
			Pos:  r.SubdivPos,
		},
		Alinea:            r.Alinea,
		Num:               r.Num,
		Rectif:            r.Rectif,
		Auteur:            r.Auteur,
		Matricule:         r.Matricule,
		Groupe:            r.Groupe,
		DateDepot:         r.DateDepot,
		Sort:              r.Sort,
		Position:          r.Position,
		DiscussionCommune: r.DiscussionCommune,
		Identique:         r.Identique,
		Dispositif:        r.Dispositif,
		Objet:             r.Objet,
		Resume:            r.Resume,
		Reponse: amendement.Reponse{
			Avis:         r.Avis,
			Observations: r.Observations,
			Reponse:      r.Reponse,
		},
	}
}
