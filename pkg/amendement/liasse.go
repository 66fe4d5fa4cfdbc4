package amendement

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

// --- Assemblée nationale "liasse" XML ---
// The liasse is the bulk export of the amendments deposited on one text:
// <amendements> → <amendement> → identifiant, signataires, corps...
// Elements live in the referentiel namespace; tags below match any
// namespace.

// LiasseDocument represents the top-level <amendements> element.
type LiasseDocument struct {
	XMLName     xml.Name           `xml:"amendements"`
	Amendements []LiasseAmendement `xml:"amendement"`
}

// LiasseAmendement represents one <amendement> element.
type LiasseAmendement struct {
	Identifiant struct {
		Legislature string `xml:"legislature"`
		Numero      string `xml:"numero"`
		Saisine     struct {
			RefTexteLegislatif string `xml:"refTexteLegislatif"`
			OrganeExamen       string `xml:"organeExamen"`
		} `xml:"saisine"`
	} `xml:"identifiant"`
	Signataires struct {
		Auteur struct {
			ActeurRef          string `xml:"acteurRef"`
			GroupePolitiqueRef string `xml:"groupePolitiqueRef"`
		} `xml:"auteur"`
	} `xml:"signataires"`
	PointeurFragmentTexte struct {
		Division struct {
			Titre string `xml:"titre"`
		} `xml:"division"`
		Alinea struct {
			Numero string `xml:"numero"`
		} `xml:"alinea"`
	} `xml:"pointeurFragmentTexte"`
	Corps struct {
		Dispositif     string `xml:"dispositif"`
		ExposeSommaire string `xml:"exposeSommaire"`
	} `xml:"corps"`
	DateDepot string `xml:"dateDepot"`
	Etat      string `xml:"etat"`
}

// ParseLiasseXML parses a liasse and returns the raw document.
func ParseLiasseXML(r io.Reader) (*LiasseDocument, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	document := &LiasseDocument{}
	if err := decoder.Decode(document); err != nil {
		return nil, fmt.Errorf("failed to parse liasse XML: %w", err)
	}
	return document, nil
}

// Acteurs maps deputy uids ("PA...") to their display name.
type Acteurs map[string]string

// Organes maps body uids ("PO...") to their label.
type Organes map[string]string

// LiasseRefs is the reference data a liasse is resolved against.
type LiasseRefs struct {
	// Textes indexes bills by uid, as built by dossier.ParseTextes.
	Textes  map[string]dossier.Texte
	Acteurs Acteurs
	Organes Organes
}

// Liasse is the outcome of normalizing a liasse. Rows with a malformed
// or missing field are in Errors; unresolved references are in Misses.
type Liasse struct {
	Amendements []Amendement
	Misses      []errs.LookupMiss
	Errors      []error
}

// ImportLiasse parses a liasse and normalizes every amendment in it.
// Only a document that cannot be read at all is an error: row failures
// and lookup misses are collected in the result. An amendment whose text
// is unknown cannot be keyed and is skipped; an unknown author or group
// leaves the corresponding field empty.
func ImportLiasse(r io.Reader, refs LiasseRefs) (*Liasse, error) {
	document, err := ParseLiasseXML(r)
	if err != nil {
		return nil, err
	}

	result := &Liasse{}
	for rowIndex, raw := range document.Amendements {
		amendement, misses, err := FromLiasse(raw, refs)
		result.Misses = append(result.Misses, misses...)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("amendement %d: %w", rowIndex+1, err))
			continue
		}
		if amendement == nil {
			continue
		}
		result.Amendements = append(result.Amendements, *amendement)
	}
	return result, nil
}

// FromLiasse converts one liasse amendment. A nil amendment with no error
// means its text is missing from refs.Textes.
func FromLiasse(raw LiasseAmendement, refs LiasseRefs) (*Amendement, []errs.LookupMiss, error) {
	titre := strings.TrimSpace(raw.PointeurFragmentTexte.Division.Titre)
	if titre == "" {
		return nil, nil, errs.NewParseError("division", "", nil)
	}
	texteUID := strings.TrimSpace(raw.Identifiant.Saisine.RefTexteLegislatif)
	if texteUID == "" {
		return nil, nil, errs.NewParseError("refTexteLegislatif", "", nil)
	}
	auteurUID := strings.TrimSpace(raw.Signataires.Auteur.ActeurRef)
	if auteurUID == "" {
		return nil, nil, errs.NewParseError("acteurRef", "", nil)
	}
	groupeUID := strings.TrimSpace(raw.Signataires.Auteur.GroupePolitiqueRef)
	if groupeUID == "" {
		return nil, nil, errs.NewParseError("groupePolitiqueRef", "", nil)
	}

	num, rectif, err := ParseNum(raw.Identifiant.Numero)
	if err != nil {
		return nil, nil, err
	}
	label := FormatNum(num, rectif)

	texte, ok := refs.Textes[texteUID]
	if !ok {
		return nil, []errs.LookupMiss{{Kind: errs.LookupTexte, Key: texteUID, Context: label}}, nil
	}

	subdivision, err := subdiv.Parse(titre)
	if err != nil {
		return nil, nil, err
	}
	dateDepot, err := parseLiasseDate(raw.DateDepot)
	if err != nil {
		return nil, nil, err
	}

	amendement := &Amendement{
		Chambre:    dossier.AN,
		Session:    strings.TrimSpace(raw.Identifiant.Legislature),
		NumTexte:   texte.Numero,
		Organe:     strings.TrimSpace(raw.Identifiant.Saisine.OrganeExamen),
		Subdiv:     subdivision,
		Alinea:     strings.TrimSpace(raw.PointeurFragmentTexte.Alinea.Numero),
		Num:        num,
		Rectif:     rectif,
		Matricule:  &auteurUID,
		DateDepot:  dateDepot,
		Sort:       NormalizeSort(raw.Etat),
		Dispositif: CleanHTML(raw.Corps.Dispositif),
		Objet:      CleanHTML(raw.Corps.ExposeSommaire),
	}

	var misses []errs.LookupMiss
	if name, ok := refs.Acteurs[auteurUID]; ok {
		amendement.Auteur = name
	} else {
		misses = append(misses, errs.LookupMiss{Kind: errs.LookupAuteur, Key: auteurUID, Context: label})
	}
	if libelle, ok := refs.Organes[groupeUID]; ok {
		amendement.Groupe = &libelle
	} else {
		misses = append(misses, errs.LookupMiss{Kind: errs.LookupGroupe, Key: groupeUID, Context: label})
	}
	return amendement, misses, nil
}

// parseLiasseDate reads a deposit date, which may carry a time and zone
// after the calendar date.
func parseLiasseDate(text string) (*time.Time, error) {
	text = strings.TrimSpace(text)
	if len(text) > len(time.DateOnly) {
		text = text[:len(time.DateOnly)]
	}
	return ParseDate(text)
}

// --- Assemblée nationale reference data (AMO export) ---

type rawReferentiel struct {
	Export struct {
		Organes struct {
			Organe []rawOrgane `json:"organe"`
		} `json:"organes"`
		Acteurs struct {
			Acteur []rawActeur `json:"acteur"`
		} `json:"acteurs"`
	} `json:"export"`
}

type rawOrgane struct {
	UID     refText `json:"uid"`
	Libelle refText `json:"libelle"`
}

type rawActeur struct {
	UID       refText `json:"uid"`
	EtatCivil struct {
		Ident struct {
			Prenom refText `json:"prenom"`
			Nom    refText `json:"nom"`
		} `json:"ident"`
	} `json:"etatCivil"`
}

// refText accepts a JSON string or an object carrying its text under
// "#text", as acteur uids are encoded.
type refText string

func (t *refText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*t = refText(text)
	case trimmed[0] == '{':
		var wrapped struct {
			Text string `json:"#text"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		*t = refText(wrapped.Text)
	default:
		*t = refText(trimmed)
	}
	return nil
}

// DecodeReferentiel reads the deputies and bodies of an AMO open-data
// export. Entries without uid are ignored.
func DecodeReferentiel(r io.Reader) (Acteurs, Organes, error) {
	var raw rawReferentiel
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("failed to decode referentiel: %w", err)
	}

	acteurs := make(Acteurs, len(raw.Export.Acteurs.Acteur))
	for _, acteur := range raw.Export.Acteurs.Acteur {
		if acteur.UID == "" {
			continue
		}
		ident := acteur.EtatCivil.Ident
		acteurs[string(acteur.UID)] = strings.TrimSpace(string(ident.Prenom) + " " + string(ident.Nom))
	}
	organes := make(Organes, len(raw.Export.Organes.Organe))
	for _, organe := range raw.Export.Organes.Organe {
		if organe.UID == "" {
			continue
		}
		organes[string(organe.UID)] = string(organe.Libelle)
	}
	return acteurs, organes, nil
}
