package dossier

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MelodieDahi/zam/pkg/errs"
)

const sampleExport = `{
  "export": {
    "textesLegislatifs": {
      "document": [
        {
          "uid": "PRJLANR5L15B0269",
          "classification": {"type": {"code": "PRJL"}},
          "notice": {"numNotice": "269"},
          "titres": {
            "titrePrincipal": "projet de loi de financement de la sécurité sociale pour 2018",
            "titrePrincipalCourt": "PLFSS pour 2018"
          },
          "cycleDeVie": {"chrono": {"dateDepot": "2017-10-11T00:00:00.000+02:00"}}
        },
        {
          "uid": "PRJLSNR5S299B0063",
          "classification": {"type": {"code": "PRJL"}},
          "notice": {"numNotice": 63},
          "titres": {"titrePrincipal": "projet de loi de financement", "titrePrincipalCourt": "PLFSS"},
          "cycleDeVie": {"chrono": {"dateDepot": {"@xsi:nil": "true"}}}
        },
        {
          "uid": "RAPPANR5L15B0345",
          "classification": {"type": {"code": "RAPP"}},
          "notice": {"numNotice": "345"}
        },
        {
          "uid": "PIONANR5L15B0999",
          "classification": {"type": {"code": "PION"}},
          "notice": {"numNotice": "n/a"}
        }
      ]
    },
    "dossiersLegislatifs": {
      "dossier": {
        "dossierParlementaire": {
          "uid": "DLR5L15N36030",
          "titreDossier": {"titre": "Sécurité sociale : loi de financement 2018"},
          "actesLegislatifs": {
            "acteLegislatif": [
              {
                "@xsi:type": "Etape_Type",
                "codeActe": "AN1",
                "actesLegislatifs": {
                  "acteLegislatif": [
                    {"@xsi:type": "DepotInitial_Type", "codeActe": "AN1-DEPOT", "texteAssocie": "PRJLANR5L15B0269"},
                    {
                      "@xsi:type": "Etape_Type",
                      "codeActe": "AN1-COM",
                      "actesLegislatifs": {
                        "acteLegislatif": {
                          "@xsi:type": "Etape_Type",
                          "codeActe": "AN1-COM-FOND",
                          "actesLegislatifs": {
                            "acteLegislatif": {"codeActe": "AN1-COM-FOND-RAPPORT", "texteAdopte": null}
                          }
                        }
                      }
                    }
                  ]
                }
              },
              {
                "@xsi:type": "Etape_Type",
                "codeActe": "SN1",
                "actesLegislatifs": {
                  "acteLegislatif": [
                    {"codeActe": "SN1-DEPOT", "texteAssocie": "PRJLSNR5S299B0063"},
                    {"codeActe": "SN1-DEBATS", "actesLegislatifs": {
                      "acteLegislatif": {"codeActe": "SN1-DEBATS-SEANCE", "texteAssocie": "PRJLSNR5S299B0063"}
                    }}
                  ]
                }
              }
            ]
          }
        }
      }
    }
  }
}`

func TestDecodeExport(t *testing.T) {
	export, decodeErr := DecodeExport(strings.NewReader(sampleExport))
	if decodeErr != nil {
		t.Fatalf("DecodeExport returned error: %v", decodeErr)
	}

	if len(export.Documents) != 4 {
		t.Fatalf("got %d documents, want 4", len(export.Documents))
	}
	if export.Documents[1].NumNotice != "63" {
		t.Errorf("numeric numNotice decoded as %q, want \"63\"", export.Documents[1].NumNotice)
	}
	if export.Documents[1].DateDepot != "" {
		t.Errorf("nil dateDepot decoded as %q, want empty", export.Documents[1].DateDepot)
	}
	if len(export.Dossiers) != 1 {
		t.Fatalf("got %d dossiers, want 1", len(export.Dossiers))
	}
	if export.Dossiers[0].UID != "DLR5L15N36030" {
		t.Errorf("dossier uid = %q", export.Dossiers[0].UID)
	}
}

func TestDecodeExportMalformed(t *testing.T) {
	if _, decodeErr := DecodeExport(strings.NewReader(`{"export": [`)); decodeErr == nil {
		t.Error("DecodeExport succeeded on truncated input, want error")
	}
}

func TestParseTextes(t *testing.T) {
	export, _ := DecodeExport(strings.NewReader(sampleExport))
	textes, parseErrs := ParseTextes(export.Documents)

	if len(textes) != 2 {
		t.Errorf("got %d textes, want 2 (reports are skipped)", len(textes))
	}
	if len(parseErrs) != 1 {
		t.Fatalf("got %d parse errors, want 1", len(parseErrs))
	}
	var parseErr *errs.ParseError
	if !errors.As(parseErrs[0], &parseErr) || parseErr.Field != "numNotice" {
		t.Errorf("parse error = %v, want numNotice ParseError", parseErrs[0])
	}

	plfss := textes["PRJLANR5L15B0269"]
	if plfss.Numero != 269 || plfss.Type != Projet || plfss.TitreCourt != "PLFSS pour 2018" {
		t.Errorf("texte = %+v", plfss)
	}
	if plfss.DateDepot == nil || plfss.DateDepot.Format("2006-01-02") != "2017-10-11" {
		t.Errorf("date_depot = %v, want 2017-10-11", plfss.DateDepot)
	}
	if textes["PRJLSNR5S299B0063"].DateDepot != nil {
		t.Error("unknown date_depot should be nil")
	}
}

func TestBuildAll(t *testing.T) {
	export, _ := DecodeExport(strings.NewReader(sampleExport))
	textes, _ := ParseTextes(export.Documents)

	dossiers, report := NewBuilder(nil, 0).BuildAll(export, textes)
	if len(report.Missing) != 0 {
		t.Errorf("unexpected missing textes: %+v", report.Missing)
	}

	dossier, found := FindDossier(dossiers, "DLR5L15N36030")
	if !found {
		t.Fatal("dossier not found")
	}

	var titres []string
	for _, lecture := range dossier.Lectures.All() {
		titres = append(titres, lecture.Chambre.String()+" – "+lecture.Titre)
	}
	want := []string{
		"Assemblée nationale – Première lecture – Commission saisie au fond",
		"Sénat – Première lecture – Séance publique",
	}
	if diff := cmp.Diff(want, titres); diff != "" {
		t.Errorf("lectures mismatch (-want +got):\n%s", diff)
	}

	if _, found := FindDossier(dossiers, "DLR-UNKNOWN"); found {
		t.Error("FindDossier found an unknown uid")
	}
}
