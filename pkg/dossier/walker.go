package dossier

import (
	"fmt"
	"iter"

	"github.com/MelodieDahi/zam/pkg/errs"
)

// DefaultMaxDepth bounds the recursion of the procedure-tree walk. Real
// trees are less than ten levels deep.
const DefaultMaxDepth = 32

// Venue codes for the two reading-producing events.
const (
	VenueCommission = "COM-FOND"
	VenueSeance     = "DEBATS"
)

var venueLabels = map[string]string{
	VenueCommission: "Commission saisie au fond",
	VenueSeance:     "Séance publique",
}

// Reading is one reading-producing event found in a procedure tree,
// paired with the uid of the text it concerns.
type Reading struct {
	Chambre  Chambre
	Phase    string
	Venue    string
	TexteUID string
}

// Stage returns the stage key combining the phase and the venue code,
// e.g. "Première lecture/COM-FOND".
func (r Reading) Stage() string {
	return r.Phase + "/" + r.Venue
}

// Label returns the human label of the stage, e.g. "Première lecture –
// Séance publique".
func (r Reading) Label() string {
	return r.Phase + " – " + venueLabels[r.Venue]
}

// Walker extracts readings from a procedure tree.
type Walker struct {
	// MaxDepth bounds recursion; zero means DefaultMaxDepth.
	MaxDepth int
}

// Walk lazily yields the readings of the tree rooted at root in document
// order (depth first, children in the given order).
//
// Reading nodes without a text reference are skipped, and a given
// (stage, text uid) pair is yielded at most once. Subtrees deeper than
// MaxDepth are not visited: a single error wrapping errs.ErrMaxDepth is
// yielded in their place and the walk continues with the next sibling.
// All state is local to one iteration, so walking the same tree again
// yields the same sequence.
func (w Walker) Walk(root Node) iter.Seq2[Reading, error] {
	maxDepth := w.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	return func(yield func(Reading, error) bool) {
		seen := make(map[Reading]struct{})

		var visit func(node Node, phase *Phase, depth int) bool
		visit = func(node Node, phase *Phase, depth int) bool {
			if depth > maxDepth {
				depthErr := fmt.Errorf("%w: act %q at depth %d", errs.ErrMaxDepth, node.Code, depth)
				return yield(Reading{}, depthErr)
			}

			switch node.Kind() {
			case KindPhase:
				opened, _ := node.Phase()
				phase = &opened
			case KindCommittee, KindFloor:
				if reading, ok := readingOf(node, phase); ok {
					if _, duplicate := seen[reading]; !duplicate {
						seen[reading] = struct{}{}
						if !yield(reading, nil) {
							return false
						}
					}
				}
			case KindContainer, KindUnknown:
			}

			for _, child := range node.Children {
				if !visit(child, phase, depth+1) {
					return false
				}
			}
			return true
		}

		visit(root, nil, 0)
	}
}

// readingOf builds the reading for a committee or floor node. Nodes
// outside any phase, or without a text reference, produce nothing.
func readingOf(node Node, phase *Phase) (Reading, bool) {
	uid := node.BillUID()
	if phase == nil || uid == "" {
		return Reading{}, false
	}
	venue := VenueSeance
	if node.Kind() == KindCommittee {
		venue = VenueCommission
	}
	return Reading{
		Chambre:  phase.Chambre,
		Phase:    phase.Label,
		Venue:    venue,
		TexteUID: uid,
	}, true
}

// Walk walks root with the default depth bound.
func Walk(root Node) iter.Seq2[Reading, error] {
	return Walker{}.Walk(root)
}
