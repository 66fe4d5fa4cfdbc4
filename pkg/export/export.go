// Package export writes reconciled amendements out for offline review.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/MelodieDahi/zam/pkg/amendement"
)

// OutputFormat selects the export encoding.
type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatJSON OutputFormat = "json"
)

// Headers are the column names of the spreadsheet export.
var Headers = []string{
	"Chambre",
	"Session",
	"Num_texte",
	"Organe",
	"Subdiv_type",
	"Subdiv_num",
	"Subdiv_mult",
	"Subdiv_pos",
	"Subdiv_titre",
	"Alinéa",
	"Nº amdt ou sous-amdt",
	"Rectif",
	"Auteur(s)",
	"Matricule",
	"Groupe",
	"Date de dépôt",
	"Sort",
	"Position",
	"Discussion commune ?",
	"Identique ?",
	"Dispositif",
	"Corps de l'amendement (origine : parlementaire)",
	"Exposé de l'amendement (origine : parlementaire)",
	"Avis",
	"Objet de l'amendement (origine : saisie coordinateur)",
	"Réponse à l'amendement (origine : saisie rédacteur)",
}

// Write encodes amendements in the given format and returns the number of
// amendements written.
func Write(w io.Writer, format OutputFormat, amendements []amendement.Amendement) (int, error) {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, amendements)
	case FormatJSON:
		return WriteJSON(w, amendements)
	default:
		return 0, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteCSV writes one semicolon-separated row per amendement, in the
// given order, after a header row. HTML markup is stripped from the
// content columns.
func WriteCSV(w io.Writer, amendements []amendement.Amendement) (int, error) {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(Headers); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for rowIndex, a := range amendements {
		if err := writer.Write(row(a)); err != nil {
			return rowIndex, fmt.Errorf("failed to write amendement %s: %w", a.NumDisp(), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}
	return len(amendements), nil
}

func row(a amendement.Amendement) []string {
	return []string{
		string(a.Chambre),
		a.Session,
		strconv.Itoa(a.NumTexte),
		a.Organe,
		a.Subdiv.Type,
		a.Subdiv.Num,
		a.Subdiv.Mult,
		a.Subdiv.Pos,
		"",
		a.Alinea,
		strconv.Itoa(a.Num),
		strconv.Itoa(a.Rectif),
		a.Auteur,
		a.MatriculeOrEmpty(),
		a.GroupeOrEmpty(),
		formatDate(a.DateDepot),
		a.Sort,
		formatInt(a.Position),
		formatInt(a.DiscussionCommune),
		formatBool(a.Identique),
		amendement.StripHTML(a.Dispositif),
		amendement.StripHTML(a.Objet),
		amendement.StripHTML(a.Resume),
		a.Reponse.Avis,
		amendement.StripHTML(a.Reponse.Observations),
		amendement.StripHTML(a.Reponse.Reponse),
	}
}

func formatDate(date *time.Time) string {
	if date == nil {
		return ""
	}
	return date.Format(time.DateOnly)
}

func formatInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func formatBool(value bool) string {
	if !value {
		return ""
	}
	return "oui"
}

// Record is the JSON form of an exported amendement.
type Record struct {
	Chambre           string  `json:"chambre"`
	Session           string  `json:"session"`
	NumTexte          int     `json:"num_texte"`
	Organe            string  `json:"organe"`
	Subdivision       string  `json:"subdivision"`
	Alinea            string  `json:"alinea,omitempty"`
	Num               int     `json:"num"`
	NumDisp           string  `json:"num_disp"`
	Auteur            string  `json:"auteur"`
	Matricule         *string `json:"matricule"`
	Groupe            *string `json:"groupe"`
	DateDepot         string  `json:"date_depot,omitempty"`
	Sort              string  `json:"sort,omitempty"`
	Position          *int    `json:"position"`
	DiscussionCommune *int    `json:"discussion_commune"`
	Identique         bool    `json:"identique"`
	Dispositif        string  `json:"dispositif"`
	Objet             string  `json:"objet"`
	Resume            string  `json:"resume,omitempty"`
	Avis              string  `json:"avis,omitempty"`
	Observations      string  `json:"observations,omitempty"`
	Reponse           string  `json:"reponse,omitempty"`
}

// NewRecord converts an amendement to its JSON form. Content columns keep
// their cleaned HTML.
func NewRecord(a amendement.Amendement) Record {
	return Record{
		Chambre:           string(a.Chambre),
		Session:           a.Session,
		NumTexte:          a.NumTexte,
		Organe:            a.Organe,
		Subdivision:       a.Subdiv.String(),
		Alinea:            a.Alinea,
		Num:               a.Num,
		NumDisp:           a.NumDisp(),
		Auteur:            a.Auteur,
		Matricule:         a.Matricule,
		Groupe:            a.Groupe,
		DateDepot:         formatDate(a.DateDepot),
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

// WriteJSON writes amendements as an indented JSON array.
func WriteJSON(w io.Writer, amendements []amendement.Amendement) (int, error) {
	records := make([]Record, len(amendements))
	for amendementIndex, a := range amendements {
		records[amendementIndex] = NewRecord(a)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return 0, fmt.Errorf("failed to encode amendements: %w", err)
	}
	return len(records), nil
}
