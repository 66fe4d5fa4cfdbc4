package dossier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind classifies a procedure-tree node. The set is closed: the
// walker switches on it instead of probing node attributes.
type NodeKind int

const (
	// KindUnknown is a leaf that carries no reading.
	KindUnknown NodeKind = iota
	// KindContainer groups sub-acts and produces no reading of its own.
	KindContainer
	// KindPhase opens a reading phase (first reading, new reading...) in
	// one chamber.
	KindPhase
	// KindCommittee is the referral of a deposited text to the committee.
	KindCommittee
	// KindFloor is the examination of a text in plenary session.
	KindFloor
)

func (k NodeKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindPhase:
		return "phase"
	case KindCommittee:
		return "committee"
	case KindFloor:
		return "floor"
	}
	return "unknown"
}

// Phase describes a reading phase opened by a top-level act.
type Phase struct {
	Chambre Chambre
	Label   string
}

// phases lists the act codes that open a reading. Codes outside this list
// (CMP, PROM, CC...) never carry a chamber reading.
var phases = map[string]Phase{
	"AN1":    {AN, "Première lecture"},
	"SN1":    {Senat, "Première lecture"},
	"AN2":    {AN, "Deuxième lecture"},
	"SN2":    {Senat, "Deuxième lecture"},
	"AN3":    {AN, "Troisième lecture"},
	"SN3":    {Senat, "Troisième lecture"},
	"ANNLEC": {AN, "Nouvelle lecture"},
	"SNNLEC": {Senat, "Nouvelle lecture"},
	"ANLDEF": {AN, "Lecture définitive"},
	"SNLDEF": {Senat, "Lecture définitive"},
	"ANLUNI": {AN, "Lecture unique"},
	"SNLUNI": {Senat, "Lecture unique"},
}

const (
	suffixDepot   = "-DEPOT"
	suffixRapport = "-COM-FOND-RAPPORT"
	suffixSeance  = "-DEBATS-SEANCE"
)

// Node is one act of a legislative procedure tree.
type Node struct {
	Type         string
	Code         string
	TexteAssocie string
	TexteAdopte  string
	Children     []Node
}

// Kind classifies the node from its act code.
func (n Node) Kind() NodeKind {
	if _, ok := phases[n.Code]; ok {
		return KindPhase
	}
	switch {
	case strings.HasSuffix(n.Code, suffixDepot):
		return KindCommittee
	case strings.HasSuffix(n.Code, suffixRapport), strings.HasSuffix(n.Code, suffixSeance):
		return KindFloor
	}
	if len(n.Children) > 0 {
		return KindContainer
	}
	return KindUnknown
}

// Phase returns the reading phase opened by a KindPhase node.
func (n Node) Phase() (Phase, bool) {
	phase, ok := phases[n.Code]
	return phase, ok
}

// BillUID returns the uid of the text a reading node refers to, or ""
// when the node carries no reference.
func (n Node) BillUID() string {
	switch {
	case strings.HasSuffix(n.Code, suffixRapport):
		return n.TexteAdopte
	case strings.HasSuffix(n.Code, suffixDepot), strings.HasSuffix(n.Code, suffixSeance):
		return n.TexteAssocie
	}
	return ""
}

// rawActe mirrors the open-data JSON shape of an act.
type rawActe struct {
	Type             looseString      `json:"@xsi:type"`
	Code             looseString      `json:"codeActe"`
	TexteAssocie     looseString      `json:"texteAssocie"`
	TexteAdopte      looseString      `json:"texteAdopte"`
	ActesLegislatifs *rawActesWrapper `json:"actesLegislatifs"`
}

type rawActesWrapper struct {
	Acte oneOrMany[Node] `json:"acteLegislatif"`
}

// UnmarshalJSON decodes an act from the Assemblée nationale open-data
// format, where child lists may be a single object, an array or null.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw rawActe
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding acte: %w", err)
	}
	*n = Node{
		Type:         string(raw.Type),
		Code:         string(raw.Code),
		TexteAssocie: string(raw.TexteAssocie),
		TexteAdopte:  string(raw.TexteAdopte),
	}
	if raw.ActesLegislatifs != nil {
		n.Children = raw.ActesLegislatifs.Acte
	}
	return nil
}

// NewContainer wraps a list of acts into a container node, which is how
// a dossier's top-level acts are walked.
func NewContainer(children ...Node) Node {
	return Node{Children: children}
}

// oneOrMany decodes either a single JSON value or an array of values.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*o = nil
		return nil
	case trimmed[0] == '[':
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// looseString accepts a JSON string, number or boolean; null and objects
// (the export encodes missing values as {"@xsi:nil": "true"}) decode to "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*s = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*s = looseString(text)
	case '{', '[', 'n':
		*s = ""
	default:
		*s = looseString(trimmed)
	}
	return nil
}
