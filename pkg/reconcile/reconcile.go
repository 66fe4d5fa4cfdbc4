// Package reconcile turns normalized amendments into the final ordered,
// enriched list and computes the upsert diff against a persisted
// snapshot.
//
// Every function takes its inputs by value and returns new slices and
// maps; nothing here mutates its arguments.
package reconcile

import (
	"cmp"
	"slices"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
)

// Options tunes how deposit and discussion-order records are joined.
type Options struct {
	// StrictJoin joins on (chambre, session, num) instead of num alone,
	// so that feeds mixing several scopes cannot misjoin.
	StrictJoin bool
}

type joinKey struct {
	chambre dossier.Chambre
	session string
	num     int
}

func (o Options) keyOf(a amendement.Amendement) joinKey {
	if o.StrictJoin {
		return joinKey{chambre: a.Chambre, session: a.Session, num: a.Num}
	}
	return joinKey{num: a.Num}
}

// EnrichGroups resolves the political group of every amendment through
// registry. Misses leave Groupe unset and are returned for reporting.
func EnrichGroups(amendements []amendement.Amendement, registry amendement.Registry) ([]amendement.Amendement, []errs.LookupMiss) {
	enriched := make([]amendement.Amendement, len(amendements))
	var misses []errs.LookupMiss
	for amendementIndex, a := range amendements {
		resolved, miss := amendement.ResolveGroupe(a, registry)
		if miss != nil {
			misses = append(misses, *miss)
		}
		enriched[amendementIndex] = resolved
	}
	return enriched, misses
}

// MergeWithDiscussionOrder joins on num with default options.
func MergeWithDiscussionOrder(amendements, discussion []amendement.Amendement) []amendement.Amendement {
	return Merge(amendements, discussion, Options{})
}

// Merge copies the discussion-order attributes (position, common
// discussion group, identical flag) from the matching discussion record
// onto each deposited amendment. Amendments not scheduled for discussion
// are passed through unchanged. When a number appears twice in the
// discussion feed, its first occurrence wins.
func Merge(amendements, discussion []amendement.Amendement, opts Options) []amendement.Amendement {
	byKey := make(map[joinKey]amendement.Amendement, len(discussion))
	for _, scheduled := range discussion {
		key := opts.keyOf(scheduled)
		if _, seen := byKey[key]; !seen {
			byKey[key] = scheduled
		}
	}

	merged := make([]amendement.Amendement, len(amendements))
	for amendementIndex, deposited := range amendements {
		if scheduled, found := byKey[opts.keyOf(deposited)]; found {
			deposited.Position = cloneInt(scheduled.Position)
			deposited.DiscussionCommune = cloneInt(scheduled.DiscussionCommune)
			deposited.Identique = scheduled.Identique
		}
		merged[amendementIndex] = deposited
	}
	return merged
}

// Sort orders with default options.
func Sort(amendements, discussion []amendement.Amendement) []amendement.Amendement {
	return SortWith(amendements, discussion, Options{})
}

// SortWith returns the canonical display order: by rank in the
// discussion sequence, amendments absent from it after all ranked ones,
// then by number.
func SortWith(amendements, discussion []amendement.Amendement, opts Options) []amendement.Amendement {
	ranks := make(map[joinKey]int, len(discussion))
	for rank, scheduled := range discussion {
		key := opts.keyOf(scheduled)
		if _, seen := ranks[key]; !seen {
			ranks[key] = rank
		}
	}

	sorted := slices.Clone(amendements)
	slices.SortStableFunc(sorted, func(a, b amendement.Amendement) int {
		rankA, rankedA := ranks[opts.keyOf(a)]
		rankB, rankedB := ranks[opts.keyOf(b)]
		switch {
		case rankedA && !rankedB:
			return -1
		case !rankedA && rankedB:
			return 1
		case rankedA && rankedB && rankA != rankB:
			return cmp.Compare(rankA, rankB)
		}
		return cmp.Compare(a.Num, b.Num)
	})
	return sorted
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
