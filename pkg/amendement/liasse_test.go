package amendement

import (
	"errors"
	"strings"
	"testing"

	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

const liasseFixture = `<?xml version="1.0" encoding="UTF-8"?>
<amendements xmlns="http://schemas.assemblee-nationale.fr/referentiel">
  <amendement>
    <identifiant>
      <legislature>15</legislature>
      <numero>177</numero>
      <saisine>
        <refTexteLegislatif>PRJLANR5L15B0269</refTexteLegislatif>
        <organeExamen>PO717460</organeExamen>
      </saisine>
    </identifiant>
    <signataires>
      <auteur>
        <acteurRef>PA718838</acteurRef>
        <groupePolitiqueRef>PO730964</groupePolitiqueRef>
      </auteur>
    </signataires>
    <pointeurFragmentTexte>
      <division><titre>Article 3</titre></division>
      <alinea><numero>2</numero></alinea>
    </pointeurFragmentTexte>
    <corps>
      <dispositif>&lt;p&gt;Supprimer cet article.&lt;/p&gt;</dispositif>
      <exposeSommaire>&lt;p&gt;Amendement de suppression.&lt;/p&gt;&lt;script&gt;x&lt;/script&gt;</exposeSommaire>
    </corps>
    <dateDepot>2017-10-24</dateDepot>
    <etat>En traitement</etat>
  </amendement>
  <amendement>
    <identifiant>
      <legislature>15</legislature>
      <numero>178 rect.</numero>
      <saisine>
        <refTexteLegislatif>PRJLANR5L15B0269</refTexteLegislatif>
        <organeExamen>PO717460</organeExamen>
      </saisine>
    </identifiant>
    <signataires>
      <auteur>
        <acteurRef>PA999999</acteurRef>
        <groupePolitiqueRef>PO000000</groupePolitiqueRef>
      </auteur>
    </signataires>
    <pointeurFragmentTexte>
      <division><titre>Titre Ier</titre></division>
    </pointeurFragmentTexte>
    <dateDepot>2017-10-25T00:00:00.000+02:00</dateDepot>
    <etat>Rejeté</etat>
  </amendement>
  <amendement>
    <identifiant>
      <legislature>15</legislature>
      <numero>179</numero>
      <saisine>
        <refTexteLegislatif>PRJLANR5L15B9999</refTexteLegislatif>
        <organeExamen>PO717460</organeExamen>
      </saisine>
    </identifiant>
    <signataires>
      <auteur>
        <acteurRef>PA718838</acteurRef>
        <groupePolitiqueRef>PO730964</groupePolitiqueRef>
      </auteur>
    </signataires>
    <pointeurFragmentTexte>
      <division><titre>Article 4</titre></division>
    </pointeurFragmentTexte>
  </amendement>
  <amendement>
    <identifiant>
      <legislature>15</legislature>
      <numero>180</numero>
      <saisine>
        <refTexteLegislatif>PRJLANR5L15B0269</refTexteLegislatif>
        <organeExamen>PO717460</organeExamen>
      </saisine>
    </identifiant>
    <signataires>
      <auteur>
        <acteurRef>PA718838</acteurRef>
      </auteur>
    </signataires>
    <pointeurFragmentTexte>
      <division><titre>Article 5</titre></division>
    </pointeurFragmentTexte>
  </amendement>
</amendements>`

func liasseRefs() LiasseRefs {
	return LiasseRefs{
		Textes: map[string]dossier.Texte{
			"PRJLANR5L15B0269": {UID: "PRJLANR5L15B0269", Type: dossier.Projet, Numero: 269},
		},
		Acteurs: Acteurs{"PA718838": "Jean Dupont"},
		Organes: Organes{"PO730964": "La République en Marche"},
	}
}

func TestImportLiasse(t *testing.T) {
	liasse, err := ImportLiasse(strings.NewReader(liasseFixture), liasseRefs())
	if err != nil {
		t.Fatalf("ImportLiasse returned error: %v", err)
	}

	if len(liasse.Amendements) != 2 {
		t.Fatalf("got %d amendements, want 2: %+v", len(liasse.Amendements), liasse.Amendements)
	}

	first := liasse.Amendements[0]
	if first.Chambre != dossier.AN || first.Session != "15" || first.NumTexte != 269 || first.Organe != "PO717460" {
		t.Errorf("identification = %s, want AN/15/269/PO717460", first.Key())
	}
	if first.Num != 177 || first.Rectif != 0 {
		t.Errorf("Num = %d rect %d, want 177 rect 0", first.Num, first.Rectif)
	}
	if first.Subdiv != (subdiv.Subdivision{Type: "article", Num: "3"}) {
		t.Errorf("Subdiv = %+v, want article 3", first.Subdiv)
	}
	if first.Alinea != "2" {
		t.Errorf("Alinea = %q, want %q", first.Alinea, "2")
	}
	if first.Auteur != "Jean Dupont" || first.MatriculeOrEmpty() != "PA718838" {
		t.Errorf("Auteur = %q (%q), want Jean Dupont (PA718838)", first.Auteur, first.MatriculeOrEmpty())
	}
	if first.GroupeOrEmpty() != "La République en Marche" {
		t.Errorf("Groupe = %q, want La République en Marche", first.GroupeOrEmpty())
	}
	if first.DateDepot == nil || first.DateDepot.Format("2006-01-02") != "2017-10-24" {
		t.Errorf("DateDepot = %v, want 2017-10-24", first.DateDepot)
	}
	if !first.Pending() {
		t.Errorf("Sort = %q, want pending", first.Sort)
	}
	if first.Dispositif != "<p>Supprimer cet article.</p>" {
		t.Errorf("Dispositif = %q", first.Dispositif)
	}
	if strings.Contains(first.Objet, "script") {
		t.Errorf("Objet was not cleaned: %q", first.Objet)
	}

	second := liasse.Amendements[1]
	if second.Num != 178 || second.Rectif != 1 {
		t.Errorf("Num = %d rect %d, want 178 rect 1", second.Num, second.Rectif)
	}
	if second.Subdiv != (subdiv.Subdivision{Type: "titre", Num: "I"}) {
		t.Errorf("Subdiv = %+v, want titre I", second.Subdiv)
	}
	if second.Sort != "Rejeté" {
		t.Errorf("Sort = %q, want Rejeté", second.Sort)
	}
	if second.DateDepot == nil || second.DateDepot.Format("2006-01-02") != "2017-10-25" {
		t.Errorf("DateDepot = %v, want 2017-10-25", second.DateDepot)
	}
	if second.Auteur != "" || second.Groupe != nil {
		t.Errorf("unknown references resolved to %q / %v, want empty", second.Auteur, second.Groupe)
	}

	wantMisses := []errs.LookupMiss{
		{Kind: errs.LookupAuteur, Key: "PA999999", Context: "178 rect."},
		{Kind: errs.LookupGroupe, Key: "PO000000", Context: "178 rect."},
		{Kind: errs.LookupTexte, Key: "PRJLANR5L15B9999", Context: "179"},
	}
	if len(liasse.Misses) != len(wantMisses) {
		t.Fatalf("got misses %+v, want %+v", liasse.Misses, wantMisses)
	}
	for missIndex, want := range wantMisses {
		if liasse.Misses[missIndex] != want {
			t.Errorf("miss %d = %+v, want %+v", missIndex, liasse.Misses[missIndex], want)
		}
	}

	if len(liasse.Errors) != 1 {
		t.Fatalf("got errors %v, want one for the missing group reference", liasse.Errors)
	}
	var parseErr *errs.ParseError
	if !errors.As(liasse.Errors[0], &parseErr) || parseErr.Field != "groupePolitiqueRef" {
		t.Errorf("error = %v, want a groupePolitiqueRef ParseError", liasse.Errors[0])
	}
}

func TestImportLiasseInvalidDocument(t *testing.T) {
	inputs := []string{
		"",
		`<liasse><amendement/></liasse>`,
	}
	for _, input := range inputs {
		if _, err := ImportLiasse(strings.NewReader(input), liasseRefs()); err == nil {
			t.Errorf("ImportLiasse(%q) expected error, got nil", input)
		}
	}
}

func TestDecodeReferentiel(t *testing.T) {
	const referentiel = `{"export": {
		"organes": {"organe": [
			{"uid": "PO730964", "codeType": "GP", "libelle": "La République en Marche"},
			{"uid": null, "libelle": "sans uid"}
		]},
		"acteurs": {"acteur": [
			{"uid": {"@xmlns:xsi": "http://www.w3.org/2001/XMLSchema-instance", "#text": "PA718838"},
			 "etatCivil": {"ident": {"civ": "M.", "prenom": "Jean", "nom": "Dupont"}}}
		]}
	}}`

	acteurs, organes, err := DecodeReferentiel(strings.NewReader(referentiel))
	if err != nil {
		t.Fatalf("DecodeReferentiel returned error: %v", err)
	}
	if got := acteurs["PA718838"]; got != "Jean Dupont" {
		t.Errorf("acteurs[PA718838] = %q, want %q", got, "Jean Dupont")
	}
	if len(organes) != 1 || organes["PO730964"] != "La République en Marche" {
		t.Errorf("organes = %v", organes)
	}
}
