package reconcile

import (
	"fmt"
	"maps"
	"time"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/errs"
)

// Field names a non-identity column of an amendment.
type Field string

const (
	FieldSubdivType        Field = "subdiv_type"
	FieldSubdivNum         Field = "subdiv_num"
	FieldSubdivMult        Field = "subdiv_mult"
	FieldSubdivPos         Field = "subdiv_pos"
	FieldAlinea            Field = "alinea"
	FieldRectif            Field = "rectif"
	FieldAuteur            Field = "auteur"
	FieldMatricule         Field = "matricule"
	FieldGroupe            Field = "groupe"
	FieldDateDepot         Field = "date_depot"
	FieldSort              Field = "sort"
	FieldPosition          Field = "position"
	FieldDiscussionCommune Field = "discussion_commune"
	FieldIdentique         Field = "identique"
	FieldDispositif        Field = "dispositif"
	FieldObjet             Field = "objet"
	FieldResume            Field = "resume"
	FieldAvis              Field = "avis"
	FieldObservations      Field = "observations"
	FieldReponse           Field = "reponse"
)

// ReponseFields are owned by operators and never taken from upstream.
var ReponseFields = []Field{FieldAvis, FieldObservations, FieldReponse}

type accessor struct {
	field Field
	get   func(a amendement.Amendement) any
	set   func(dst *amendement.Amendement, src amendement.Amendement)
}

// accessors lists every comparable field in column order. get returns a
// comparable value: nil for an unset optional field.
var accessors = []accessor{
	{FieldSubdivType,
		func(a amendement.Amendement) any { return a.Subdiv.Type },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Subdiv.Type = src.Subdiv.Type }},
	{FieldSubdivNum,
		func(a amendement.Amendement) any { return a.Subdiv.Num },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Subdiv.Num = src.Subdiv.Num }},
	{FieldSubdivMult,
		func(a amendement.Amendement) any { return a.Subdiv.Mult },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Subdiv.Mult = src.Subdiv.Mult }},
	{FieldSubdivPos,
		func(a amendement.Amendement) any { return a.Subdiv.Pos },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Subdiv.Pos = src.Subdiv.Pos }},
	{FieldAlinea,
		func(a amendement.Amendement) any { return a.Alinea },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Alinea = src.Alinea }},
	{FieldRectif,
		func(a amendement.Amendement) any { return a.Rectif },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Rectif = src.Rectif }},
	{FieldAuteur,
		func(a amendement.Amendement) any { return a.Auteur },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Auteur = src.Auteur }},
	{FieldMatricule,
		func(a amendement.Amendement) any { return optional(a.Matricule) },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Matricule = clonePtr(src.Matricule) }},
	{FieldGroupe,
		func(a amendement.Amendement) any { return optional(a.Groupe) },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Groupe = clonePtr(src.Groupe) }},
	{FieldDateDepot,
		func(a amendement.Amendement) any { return optionalDate(a.DateDepot) },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.DateDepot = clonePtr(src.DateDepot) }},
	{FieldSort,
		func(a amendement.Amendement) any { return a.Sort },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Sort = src.Sort }},
	{FieldPosition,
		func(a amendement.Amendement) any { return optional(a.Position) },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Position = clonePtr(src.Position) }},
	{FieldDiscussionCommune,
		func(a amendement.Amendement) any { return optional(a.DiscussionCommune) },
		func(dst *amendement.Amendement, src amendement.Amendement) {
			dst.DiscussionCommune = clonePtr(src.DiscussionCommune)
		}},
	{FieldIdentique,
		func(a amendement.Amendement) any { return a.Identique },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Identique = src.Identique }},
	{FieldDispositif,
		func(a amendement.Amendement) any { return a.Dispositif },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Dispositif = src.Dispositif }},
	{FieldObjet,
		func(a amendement.Amendement) any { return a.Objet },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Objet = src.Objet }},
	{FieldResume,
		func(a amendement.Amendement) any { return a.Resume },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Resume = src.Resume }},
	{FieldAvis,
		func(a amendement.Amendement) any { return a.Reponse.Avis },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Reponse.Avis = src.Reponse.Avis }},
	{FieldObservations,
		func(a amendement.Amendement) any { return a.Reponse.Observations },
		func(dst *amendement.Amendement, src amendement.Amendement) {
			dst.Reponse.Observations = src.Reponse.Observations
		}},
	{FieldReponse,
		func(a amendement.Amendement) any { return a.Reponse.Reponse },
		func(dst *amendement.Amendement, src amendement.Amendement) { dst.Reponse.Reponse = src.Reponse.Reponse }},
}

// Fields returns every comparable field, in column order.
func Fields() []Field {
	fields := make([]Field, len(accessors))
	for accessorIndex, acc := range accessors {
		fields[accessorIndex] = acc.field
	}
	return fields
}

// ParseField validates a field name, e.g. from configuration.
func ParseField(name string) (Field, error) {
	for _, acc := range accessors {
		if string(acc.field) == name {
			return acc.field, nil
		}
	}
	return "", fmt.Errorf("unknown amendement field %q", name)
}

func optional[T any](value *T) any {
	if value == nil {
		return nil
	}
	return *value
}

func optionalDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Format(time.DateOnly)
}

func clonePtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

// Change is one field that differs between the persisted and incoming
// versions of an amendment. Unset optional values are nil.
type Change struct {
	Field Field
	Old   any
	New   any
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %v -> %v", c.Field, c.Old, c.New)
}

// Changes lists the fields of incoming that differ from existing,
// skipping the ignored ones.
func Changes(existing, incoming amendement.Amendement, ignored ...Field) []Change {
	skip := make(map[Field]bool, len(ignored))
	for _, field := range ignored {
		skip[field] = true
	}
	var changes []Change
	for _, acc := range accessors {
		if skip[acc.field] {
			continue
		}
		oldValue, newValue := acc.get(existing), acc.get(incoming)
		if oldValue != newValue {
			changes = append(changes, Change{Field: acc.field, Old: oldValue, New: newValue})
		}
	}
	return changes
}

// Apply returns a copy of existing with the changed fields taken from
// incoming. Fields not listed in changes keep their persisted value.
func Apply(existing, incoming amendement.Amendement, changes []Change) amendement.Amendement {
	updated := existing
	for _, change := range changes {
		for _, acc := range accessors {
			if acc.field == change.Field {
				acc.set(&updated, incoming)
				break
			}
		}
	}
	return updated
}

// DiffOptions tunes DiffAndUpsert.
type DiffOptions struct {
	// OperatorFields are protected in addition to ReponseFields.
	OperatorFields []Field
}

func (o DiffOptions) protected() []Field {
	return append(append([]Field(nil), ReponseFields...), o.OperatorFields...)
}

// Update is an amendment whose upstream content changed.
type Update struct {
	// Amendement is the new persisted value.
	Amendement amendement.Amendement
	Changes    []Change
}

// Diff is the result of reconciling an incoming batch with a persisted
// snapshot.
type Diff struct {
	Added     []amendement.Amendement
	Updated   []Update
	Unchanged []amendement.Amendement
	// Persisted is the snapshot after the upsert. It is a new map:
	// persisted amendments absent from the batch are kept as they were.
	Persisted map[amendement.Key]amendement.Amendement
}

// Total returns the number of amendments the diff accounts for.
func (d *Diff) Total() int {
	return len(d.Added) + len(d.Updated) + len(d.Unchanged)
}

// Messages renders the counts as the summary shown to operators.
func (d *Diff) Messages() []string {
	var messages []string
	switch added := len(d.Added); {
	case added == 1:
		messages = append(messages, "1 nouvel amendement récupéré.")
	case added > 1:
		messages = append(messages, fmt.Sprintf("%d nouveaux amendements récupérés.", added))
	}
	switch updated := len(d.Updated); {
	case updated == 1:
		messages = append(messages, "1 amendement mis à jour.")
	case updated > 1:
		messages = append(messages, fmt.Sprintf("%d amendements mis à jour.", updated))
	}
	switch unchanged := len(d.Unchanged); {
	case unchanged == 1:
		messages = append(messages, "1 amendement inchangé.")
	case unchanged > 1:
		messages = append(messages, fmt.Sprintf("%d amendements inchangés.", unchanged))
	}
	return messages
}

// DiffAndUpsert classifies each incoming amendment against the persisted
// snapshot by identity key: absent ones are added, present ones whose
// non-protected fields differ are updated field by field, the rest are
// unchanged. Protected fields of persisted amendments are never
// overwritten and nothing is ever deleted.
//
// A duplicate key within incoming, or counts that do not add up to the
// batch size, are reported as errors wrapping errs.ErrInvariant.
func DiffAndUpsert(incoming []amendement.Amendement, persisted map[amendement.Key]amendement.Amendement, opts DiffOptions) (*Diff, error) {
	seen := make(map[amendement.Key]struct{}, len(incoming))
	for _, a := range incoming {
		key := a.Key()
		if _, duplicate := seen[key]; duplicate {
			return nil, errs.Invariant("duplicate amendement %s in incoming batch", key)
		}
		seen[key] = struct{}{}
	}

	protected := opts.protected()
	diff := &Diff{Persisted: maps.Clone(persisted)}
	if diff.Persisted == nil {
		diff.Persisted = make(map[amendement.Key]amendement.Amendement, len(incoming))
	}

	for _, a := range incoming {
		key := a.Key()
		existing, found := persisted[key]
		if !found {
			diff.Added = append(diff.Added, a)
			diff.Persisted[key] = a
			continue
		}

		changes := Changes(existing, a, protected...)
		if len(changes) == 0 {
			diff.Unchanged = append(diff.Unchanged, existing)
			continue
		}
		updated := Apply(existing, a, changes)
		diff.Updated = append(diff.Updated, Update{Amendement: updated, Changes: changes})
		diff.Persisted[key] = updated
	}

	if diff.Total() != len(incoming) {
		return nil, errs.Invariant("diff accounts for %d amendements, batch has %d", diff.Total(), len(incoming))
	}
	return diff, nil
}
