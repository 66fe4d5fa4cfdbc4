package dossier

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MelodieDahi/zam/pkg/errs"
)

// Export is the decoded content of an Assemblée nationale "Dossiers
// législatifs" open-data export.
type Export struct {
	Documents []Document
	Dossiers  []DossierRecord
}

// Document is the raw description of a bill in the export.
type Document struct {
	UID                 string
	ClassificationCode  string
	NumNotice           string
	TitrePrincipal      string
	TitrePrincipalCourt string
	DateDepot           string
}

// DossierRecord is the raw description of a proceeding in the export.
type DossierRecord struct {
	UID   string
	Titre string
	Actes Node
}

type rawExport struct {
	Export struct {
		TextesLegislatifs struct {
			Document oneOrMany[rawDocument] `json:"document"`
		} `json:"textesLegislatifs"`
		DossiersLegislatifs struct {
			Dossier oneOrMany[rawDossierEnvelope] `json:"dossier"`
		} `json:"dossiersLegislatifs"`
	} `json:"export"`
}

type rawDocument struct {
	UID            looseString `json:"uid"`
	Classification struct {
		Type struct {
			Code looseString `json:"code"`
		} `json:"type"`
	} `json:"classification"`
	Notice struct {
		NumNotice looseString `json:"numNotice"`
	} `json:"notice"`
	Titres struct {
		TitrePrincipal      looseString `json:"titrePrincipal"`
		TitrePrincipalCourt looseString `json:"titrePrincipalCourt"`
	} `json:"titres"`
	CycleDeVie struct {
		Chrono struct {
			DateDepot looseString `json:"dateDepot"`
		} `json:"chrono"`
	} `json:"cycleDeVie"`
}

type rawDossierEnvelope struct {
	DossierParlementaire rawDossier `json:"dossierParlementaire"`
}

type rawDossier struct {
	UID          looseString `json:"uid"`
	TitreDossier struct {
		Titre looseString `json:"titre"`
	} `json:"titreDossier"`
	ActesLegislatifs *rawActesWrapper `json:"actesLegislatifs"`
}

// DecodeExport reads an open-data export from r.
func DecodeExport(r io.Reader) (*Export, error) {
	var raw rawExport
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding dossiers export: %w", err)
	}

	export := &Export{}
	for _, document := range raw.Export.TextesLegislatifs.Document {
		export.Documents = append(export.Documents, Document{
			UID:                 string(document.UID),
			ClassificationCode:  string(document.Classification.Type.Code),
			NumNotice:           string(document.Notice.NumNotice),
			TitrePrincipal:      string(document.Titres.TitrePrincipal),
			TitrePrincipalCourt: string(document.Titres.TitrePrincipalCourt),
			DateDepot:           string(document.CycleDeVie.Chrono.DateDepot),
		})
	}
	for _, envelope := range raw.Export.DossiersLegislatifs.Dossier {
		record := DossierRecord{
			UID:   string(envelope.DossierParlementaire.UID),
			Titre: string(envelope.DossierParlementaire.TitreDossier.Titre),
		}
		if actes := envelope.DossierParlementaire.ActesLegislatifs; actes != nil {
			record.Actes = NewContainer(actes.Acte...)
		}
		export.Dossiers = append(export.Dossiers, record)
	}
	return export, nil
}

var typesByCode = map[string]TypeTexte{
	"PRJL": Projet,
	"PION": Proposition,
}

// ParseTextes converts export documents into Textes keyed by uid.
// Documents that are not bills (reports, opinions...) are skipped; a
// document with a malformed number or date is reported and skipped.
func ParseTextes(documents []Document) (map[string]Texte, []error) {
	textes := make(map[string]Texte, len(documents))
	var parseErrs []error
	for _, document := range documents {
		typeTexte, isBill := typesByCode[document.ClassificationCode]
		if !isBill {
			continue
		}
		texte, err := parseTexte(document, typeTexte)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("texte %s: %w", document.UID, err))
			continue
		}
		textes[texte.UID] = texte
	}
	return textes, parseErrs
}

func parseTexte(document Document, typeTexte TypeTexte) (Texte, error) {
	numero, err := strconv.Atoi(strings.TrimSpace(document.NumNotice))
	if err != nil {
		return Texte{}, errs.NewParseError("numNotice", document.NumNotice, err)
	}
	dateDepot, err := parseDateDepot(document.DateDepot)
	if err != nil {
		return Texte{}, err
	}
	return Texte{
		UID:        document.UID,
		Type:       typeTexte,
		Numero:     numero,
		TitreLong:  document.TitrePrincipal,
		TitreCourt: document.TitrePrincipalCourt,
		DateDepot:  dateDepot,
	}, nil
}

// parseDateDepot reads the calendar date of an export timestamp such as
// "2017-10-11T00:00:00.000+02:00". An empty value means unknown.
func parseDateDepot(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if len(value) > len(time.DateOnly) {
		value = value[:len(time.DateOnly)]
	}
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, errs.NewParseError("dateDepot", value, err)
	}
	return &date, nil
}

// BuildAll builds every dossier of the export, in export order.
func (b *Builder) BuildAll(export *Export, textes map[string]Texte) ([]*Dossier, BuildReport) {
	dossiers := make([]*Dossier, 0, len(export.Dossiers))
	var report BuildReport
	for _, record := range export.Dossiers {
		dossier, dossierReport := b.Build(record.UID, record.Titre, record.Actes, textes)
		report.Merge(dossierReport)
		dossiers = append(dossiers, dossier)
	}
	return dossiers, report
}

// FindDossier returns the dossier with the given uid.
func FindDossier(dossiers []*Dossier, uid string) (*Dossier, bool) {
	for _, dossier := range dossiers {
		if dossier.UID == uid {
			return dossier, true
		}
	}
	return nil, false
}
