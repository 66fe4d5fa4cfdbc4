package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

func intPtr(value int) *int { return &value }

func strPtr(value string) *string { return &value }

func deposited(num int) amendement.Amendement {
	return amendement.Amendement{
		Chambre:    dossier.Senat,
		Session:    "2017-2018",
		NumTexte:   63,
		Organe:     "PO78718",
		Num:        num,
		Subdiv:     subdiv.Subdivision{Type: subdiv.TypeArticle, Num: "3"},
		Auteur:     "M. GRAND",
		Matricule:  strPtr("14032X"),
		Dispositif: "<p>Supprimer cet article.</p>",
		Objet:      "<p>Objet.</p>",
	}
}

func scheduled(num, position int, identique bool) amendement.Amendement {
	a := deposited(num)
	a.Position = intPtr(position)
	a.Identique = identique
	a.Dispositif = ""
	a.Objet = ""
	return a
}

func nums(amendements []amendement.Amendement) []int {
	result := make([]int, len(amendements))
	for amendementIndex, a := range amendements {
		result[amendementIndex] = a.Num
	}
	return result
}

func TestMergeAndSortExample(t *testing.T) {
	amendements := []amendement.Amendement{deposited(57), deposited(42), deposited(21)}
	discussion := []amendement.Amendement{scheduled(42, 0, true), scheduled(57, 1, false)}

	final := Sort(MergeWithDiscussionOrder(amendements, discussion), discussion)

	if diff := cmp.Diff([]int{42, 57, 21}, nums(final)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeCopiesDiscussionAttributes(t *testing.T) {
	discussion := []amendement.Amendement{scheduled(42, 0, true)}
	discussion[0].DiscussionCommune = intPtr(110541)

	merged := MergeWithDiscussionOrder([]amendement.Amendement{deposited(42)}, discussion)

	got := merged[0]
	if !got.Identique {
		t.Error("identique = false, want true")
	}
	if got.Position == nil || *got.Position != 0 {
		t.Errorf("position = %v, want 0", got.Position)
	}
	if got.DiscussionCommune == nil || *got.DiscussionCommune != 110541 {
		t.Errorf("discussion_commune = %v, want 110541", got.DiscussionCommune)
	}

	want := deposited(42)
	if got.Dispositif != want.Dispositif || got.Objet != want.Objet || got.Auteur != want.Auteur || got.Subdiv != want.Subdiv {
		t.Errorf("deposit content changed: %+v", got)
	}

	*discussion[0].Position = 9
	if *got.Position != 0 {
		t.Error("merged position aliases the discussion record")
	}
}

func TestMergePassesThroughUnscheduled(t *testing.T) {
	input := []amendement.Amendement{deposited(21)}
	merged := MergeWithDiscussionOrder(input, []amendement.Amendement{scheduled(42, 0, true)})

	if diff := cmp.Diff(input, merged); diff != "" {
		t.Errorf("unscheduled amendement changed (-want +got):\n%s", diff)
	}
}

func TestMergeStrictJoin(t *testing.T) {
	otherSession := scheduled(42, 0, true)
	otherSession.Session = "2016-2017"
	discussion := []amendement.Amendement{otherSession}

	loose := Merge([]amendement.Amendement{deposited(42)}, discussion, Options{})
	if loose[0].Position == nil {
		t.Error("default join should match on num alone")
	}

	strict := Merge([]amendement.Amendement{deposited(42)}, discussion, Options{StrictJoin: true})
	if strict[0].Position != nil {
		t.Error("strict join matched across sessions")
	}
}

func TestSortIgnoresInputOrder(t *testing.T) {
	discussion := []amendement.Amendement{scheduled(8, 0, false)}
	first := []amendement.Amendement{deposited(30), deposited(8), deposited(12), deposited(3)}
	second := []amendement.Amendement{deposited(3), deposited(12), deposited(8), deposited(30)}

	want := []int{8, 3, 12, 30}
	if diff := cmp.Diff(want, nums(Sort(first, discussion))); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, nums(Sort(second, discussion))); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortIdempotent(t *testing.T) {
	amendements := []amendement.Amendement{deposited(5), deposited(57), deposited(42), deposited(21), deposited(1)}
	discussion := []amendement.Amendement{scheduled(42, 0, false), scheduled(1, 1, false), scheduled(57, 2, false)}

	once := Sort(MergeWithDiscussionOrder(amendements, discussion), discussion)
	twice := Sort(MergeWithDiscussionOrder(once, discussion), discussion)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed the result (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff([]int{42, 1, 57, 5, 21}, nums(once)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	input := []amendement.Amendement{deposited(2), deposited(1)}
	Sort(input, nil)
	if input[0].Num != 2 {
		t.Error("Sort reordered its input")
	}
}

func TestEnrichGroups(t *testing.T) {
	orphan := deposited(2)
	orphan.Matricule = strPtr("99999Z")
	gouvernement := deposited(3)
	gouvernement.Matricule = nil

	registry := amendement.Senateurs{"14032X": {Matricule: "14032X", Groupe: "Les Républicains"}}
	enriched, misses := EnrichGroups([]amendement.Amendement{deposited(1), orphan, gouvernement}, registry)

	if enriched[0].GroupeOrEmpty() != "Les Républicains" {
		t.Errorf("groupe = %q", enriched[0].GroupeOrEmpty())
	}
	if enriched[1].Groupe != nil {
		t.Error("unknown matricule should leave groupe unset")
	}
	if enriched[2].Groupe != nil {
		t.Error("government amendement should have no groupe")
	}
	if len(misses) != 1 || misses[0].Kind != errs.LookupAuteur || misses[0].Key != "99999Z" {
		t.Errorf("misses = %+v", misses)
	}

	again, _ := EnrichGroups(enriched, registry)
	if diff := cmp.Diff(enriched, again); diff != "" {
		t.Errorf("enrichment is not idempotent (-first +second):\n%s", diff)
	}
}
