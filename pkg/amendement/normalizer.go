package amendement

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

// Row is one raw upstream record. CSV-sourced values are strings; values
// decoded from JSON may also be float64, json.Number or bool.
type Row map[string]any

// String returns the value of column as text, or "" when absent.
func (r Row) String(column string) string {
	switch value := r[column].(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}

// Columns of the senate "jeu complet" CSV. Several carry a trailing space
// upstream.
const (
	ColNumero      = "Numéro "
	ColSubdivision = "Subdivision "
	ColAlinea      = "Alinéa"
	ColAuteur      = "Auteur "
	ColFiche       = "Fiche Sénateur"
	ColDateDepot   = "Date de dépôt "
	ColSort        = "Sort "
	ColDispositif  = "Dispositif "
	ColObjet       = "Objet "
)

// Keys of a discussion-order amendment object.
const (
	KeyNum                 = "num"
	KeyAlinea              = "libelleAlinea"
	KeyAuteur              = "auteur"
	KeyURLAuteur           = "urlAuteur"
	KeyIdentique           = "isIdentique"
	KeyDiscussionCommune   = "isDiscussionCommune"
	KeyIDDiscussionCommune = "idDiscussionCommune"
	KeySort                = "sort"
)

// AuteurGouvernement is the author label of government amendments, which
// have no senator page.
const AuteurGouvernement = "LE GOUVERNEMENT"

// Normalizer converts raw rows deposited on one Texte into Amendements.
type Normalizer struct {
	Chambre  dossier.Chambre
	Session  string
	NumTexte int
	Organe   string
}

// Scope returns the scope of the amendments the normalizer produces.
func (n Normalizer) Scope() Scope {
	return Scope{Chambre: n.Chambre, Session: n.Session, NumTexte: n.NumTexte, Organe: n.Organe}
}

func (n Normalizer) base() Amendement {
	return Amendement{Chambre: n.Chambre, Session: n.Session, NumTexte: n.NumTexte, Organe: n.Organe}
}

// FromDeposit converts a deposit CSV row.
func (n Normalizer) FromDeposit(row Row) (Amendement, error) {
	amendement := n.base()

	var err error
	amendement.Num, amendement.Rectif, err = ParseNum(row.String(ColNumero))
	if err != nil {
		return Amendement{}, err
	}

	subdivision, err := subdiv.Parse(row.String(ColSubdivision))
	if err != nil {
		return Amendement{}, err
	}
	amendement.Subdiv = subdivision

	matricule, err := ExtractMatricule(strings.TrimSpace(row.String(ColFiche)))
	if err != nil {
		return Amendement{}, err
	}
	amendement.Matricule = matricule

	dateDepot, err := ParseDate(strings.TrimSpace(row.String(ColDateDepot)))
	if err != nil {
		return Amendement{}, err
	}
	amendement.DateDepot = dateDepot

	amendement.Alinea = strings.TrimSpace(row.String(ColAlinea))
	amendement.Auteur = strings.TrimSpace(row.String(ColAuteur))
	amendement.Sort = NormalizeSort(row.String(ColSort))
	amendement.Dispositif = CleanHTML(row.String(ColDispositif))
	amendement.Objet = CleanHTML(row.String(ColObjet))
	return amendement, nil
}

// FromDiscussion converts one amendment object of a discussion-order
// feed. position is its rank in the feed and subdivision the label of the
// group it was listed under.
func (n Normalizer) FromDiscussion(row Row, position int, subdivision string) (Amendement, error) {
	amendement := n.base()

	var err error
	amendement.Num, amendement.Rectif, err = ParseNum(row.String(KeyNum))
	if err != nil {
		return Amendement{}, err
	}

	parsedSubdiv, err := subdiv.Parse(subdivision)
	if err != nil {
		return Amendement{}, err
	}
	amendement.Subdiv = parsedSubdiv

	amendement.Auteur = strings.TrimSpace(row.String(KeyAuteur))
	if amendement.Auteur != AuteurGouvernement {
		amendement.Matricule, err = ExtractMatricule(row.String(KeyURLAuteur))
		if err != nil {
			return Amendement{}, err
		}
	}

	identique, err := ParseBool(row.String(KeyIdentique))
	if err != nil {
		return Amendement{}, err
	}
	amendement.Identique = identique

	inCommon, err := ParseBool(row.String(KeyDiscussionCommune))
	if err != nil {
		return Amendement{}, err
	}
	if inCommon {
		rawID := row.String(KeyIDDiscussionCommune)
		var groupID int
		groupID, err = strconv.Atoi(rawID)
		if err != nil {
			return Amendement{}, errs.NewParseError(KeyIDDiscussionCommune, rawID, err)
		}
		amendement.DiscussionCommune = &groupID
	}

	amendement.Position = &position
	amendement.Alinea = strings.TrimSpace(row.String(KeyAlinea))
	amendement.Sort = NormalizeSort(row.String(KeySort))
	return amendement, nil
}

// Normalize converts a deposit row and resolves the author's political
// group. A matricule missing from the registry is not an error: the
// amendment is returned with Groupe unset along with the miss.
func (n Normalizer) Normalize(row Row, registry Registry) (Amendement, *errs.LookupMiss, error) {
	amendement, err := n.FromDeposit(row)
	if err != nil {
		return Amendement{}, nil, err
	}
	resolved, miss := ResolveGroupe(amendement, registry)
	return resolved, miss, nil
}

// ResolveGroupe sets the political group of a from its matricule. The
// group is always recomputed, so resolving twice gives the same result.
// Amendments without matricule (government amendments) are returned
// unchanged.
func ResolveGroupe(a Amendement, registry Registry) (Amendement, *errs.LookupMiss) {
	if a.Matricule == nil {
		return a, nil
	}
	a.Groupe = nil
	var senateur Senateur
	found := false
	if registry != nil {
		senateur, found = registry.Lookup(*a.Matricule)
	}
	if !found {
		return a, &errs.LookupMiss{Kind: errs.LookupAuteur, Key: *a.Matricule, Context: a.NumDisp()}
	}
	if senateur.Groupe != "" {
		groupe := senateur.Groupe
		a.Groupe = &groupe
	}
	return a, nil
}
