package dossier

import (
	"errors"
	"testing"

	"github.com/MelodieDahi/zam/pkg/errs"
)

func collectReadings(t *testing.T, walker Walker, root Node) ([]Reading, []error) {
	t.Helper()
	var readings []Reading
	var walkErrs []error
	for reading, walkErr := range walker.Walk(root) {
		if walkErr != nil {
			walkErrs = append(walkErrs, walkErr)
			continue
		}
		readings = append(readings, reading)
	}
	return readings, walkErrs
}

func firstReadingTree() Node {
	return Node{
		Code: "AN1",
		Children: []Node{
			{Code: "AN1-DEPOT", TexteAssocie: "B1"},
			{
				Code: "AN1-COM",
				Children: []Node{
					{Code: "AN1-COM-FOND", Children: []Node{
						{Code: "AN1-COM-FOND-RAPPORT", TexteAdopte: "B2"},
					}},
				},
			},
		},
	}
}

func TestWalkTwoReadings(t *testing.T) {
	readings, walkErrs := collectReadings(t, Walker{}, firstReadingTree())
	if len(walkErrs) != 0 {
		t.Fatalf("unexpected walk errors: %v", walkErrs)
	}

	want := []struct {
		stage string
		uid   string
	}{
		{"Première lecture/COM-FOND", "B1"},
		{"Première lecture/DEBATS", "B2"},
	}
	if len(readings) != len(want) {
		t.Fatalf("got %d readings, want %d: %+v", len(readings), len(want), readings)
	}
	for readingIndex, expected := range want {
		if readings[readingIndex].Stage() != expected.stage {
			t.Errorf("reading %d stage = %q, want %q", readingIndex, readings[readingIndex].Stage(), expected.stage)
		}
		if readings[readingIndex].TexteUID != expected.uid {
			t.Errorf("reading %d uid = %q, want %q", readingIndex, readings[readingIndex].TexteUID, expected.uid)
		}
		if readings[readingIndex].Chambre != AN {
			t.Errorf("reading %d chambre = %q, want %q", readingIndex, readings[readingIndex].Chambre, AN)
		}
	}
}

func TestWalkContainerFlattens(t *testing.T) {
	bare, _ := collectReadings(t, Walker{}, firstReadingTree())
	wrapped, _ := collectReadings(t, Walker{}, NewContainer(NewContainer(firstReadingTree())))

	if len(bare) != len(wrapped) {
		t.Fatalf("wrapped walk yielded %d readings, want %d", len(wrapped), len(bare))
	}
	for readingIndex := range bare {
		if bare[readingIndex] != wrapped[readingIndex] {
			t.Errorf("reading %d = %+v, want %+v", readingIndex, wrapped[readingIndex], bare[readingIndex])
		}
	}
}

func TestWalkLabels(t *testing.T) {
	tree := NewContainer(
		Node{Code: "SN1", Children: []Node{
			{Code: "SN1-DEPOT", TexteAssocie: "S1"},
			{Code: "SN1-DEBATS", Children: []Node{
				{Code: "SN1-DEBATS-SEANCE", TexteAssocie: "S1"},
			}},
		}},
		Node{Code: "ANNLEC", Children: []Node{
			{Code: "ANNLEC-DEPOT", TexteAssocie: "A2"},
		}},
	)

	readings, _ := collectReadings(t, Walker{}, tree)
	want := []string{
		"Première lecture – Commission saisie au fond",
		"Première lecture – Séance publique",
		"Nouvelle lecture – Commission saisie au fond",
	}
	if len(readings) != len(want) {
		t.Fatalf("got %d readings, want %d", len(readings), len(want))
	}
	for readingIndex, label := range want {
		if got := readings[readingIndex].Label(); got != label {
			t.Errorf("reading %d label = %q, want %q", readingIndex, got, label)
		}
	}
	if readings[0].Chambre != Senat || readings[2].Chambre != AN {
		t.Errorf("chambres = %q, %q; want %q, %q", readings[0].Chambre, readings[2].Chambre, Senat, AN)
	}
}

func TestWalkSingleAndDefinitiveReadings(t *testing.T) {
	tree := NewContainer(
		Node{Code: "ANLUNI", Children: []Node{
			{Code: "ANLUNI-DEPOT", TexteAssocie: "U1"},
		}},
		Node{Code: "SNLDEF", Children: []Node{
			{Code: "SNLDEF-DEBATS", Children: []Node{
				{Code: "SNLDEF-DEBATS-SEANCE", TexteAssocie: "D1"},
			}},
		}},
	)

	readings, walkErrs := collectReadings(t, Walker{}, tree)
	if len(walkErrs) != 0 {
		t.Fatalf("unexpected walk errors: %v", walkErrs)
	}
	want := []struct {
		chambre Chambre
		label   string
	}{
		{AN, "Lecture unique – Commission saisie au fond"},
		{Senat, "Lecture définitive – Séance publique"},
	}
	if len(readings) != len(want) {
		t.Fatalf("got %d readings, want %d: %+v", len(readings), len(want), readings)
	}
	for readingIndex, expected := range want {
		if readings[readingIndex].Chambre != expected.chambre {
			t.Errorf("reading %d chambre = %q, want %q", readingIndex, readings[readingIndex].Chambre, expected.chambre)
		}
		if got := readings[readingIndex].Label(); got != expected.label {
			t.Errorf("reading %d label = %q, want %q", readingIndex, got, expected.label)
		}
	}
}

func TestWalkSkipsMissingReference(t *testing.T) {
	tree := Node{Code: "AN1", Children: []Node{
		{Code: "AN1-DEPOT"},
		{Code: "AN1-COM-FOND-RAPPORT", TexteAdopte: "B2"},
	}}

	readings, walkErrs := collectReadings(t, Walker{}, tree)
	if len(walkErrs) != 0 {
		t.Fatalf("unexpected walk errors: %v", walkErrs)
	}
	if len(readings) != 1 || readings[0].TexteUID != "B2" {
		t.Errorf("readings = %+v, want only B2", readings)
	}
}

func TestWalkOutsidePhase(t *testing.T) {
	tree := NewContainer(
		Node{Code: "CMP", Children: []Node{
			{Code: "CMP-DEPOT", TexteAssocie: "C1"},
		}},
	)

	readings, _ := collectReadings(t, Walker{}, tree)
	if len(readings) != 0 {
		t.Errorf("readings outside a phase = %+v, want none", readings)
	}
}

func TestWalkDeduplicates(t *testing.T) {
	duplicated := firstReadingTree()
	tree := NewContainer(duplicated, duplicated)

	readings, _ := collectReadings(t, Walker{}, tree)
	if len(readings) != 2 {
		t.Errorf("got %d readings from a duplicated tree, want 2", len(readings))
	}
}

func TestWalkMaxDepth(t *testing.T) {
	deep := Node{Code: "AN1-DEPOT", TexteAssocie: "DEEP"}
	for range 10 {
		deep = NewContainer(deep)
	}
	tree := Node{Code: "AN1", Children: []Node{
		{Code: "AN1-DEPOT", TexteAssocie: "B1"},
		deep,
		{Code: "AN1-COM-FOND-RAPPORT", TexteAdopte: "B2"},
	}}

	readings, walkErrs := collectReadings(t, Walker{MaxDepth: 4}, tree)
	if len(walkErrs) != 1 {
		t.Fatalf("got %d walk errors, want 1: %v", len(walkErrs), walkErrs)
	}
	if !errors.Is(walkErrs[0], errs.ErrMaxDepth) {
		t.Errorf("walk error = %v, want ErrMaxDepth", walkErrs[0])
	}
	if len(readings) != 2 || readings[0].TexteUID != "B1" || readings[1].TexteUID != "B2" {
		t.Errorf("readings = %+v, want B1 then B2", readings)
	}
}

func TestWalkRestartable(t *testing.T) {
	sequence := Walk(firstReadingTree())

	var first, second []Reading
	for reading := range sequence {
		first = append(first, reading)
	}
	for reading := range sequence {
		second = append(second, reading)
	}
	if len(first) != 2 || len(first) != len(second) {
		t.Fatalf("walks yielded %d and %d readings, want 2 each", len(first), len(second))
	}
	for readingIndex := range first {
		if first[readingIndex] != second[readingIndex] {
			t.Errorf("second walk reading %d = %+v, want %+v", readingIndex, second[readingIndex], first[readingIndex])
		}
	}
}

func TestWalkEarlyStop(t *testing.T) {
	count := 0
	for range Walk(firstReadingTree()) {
		count++
		break
	}
	if count != 1 {
		t.Errorf("loop ran %d times after break, want 1", count)
	}
}

func TestNodeKind(t *testing.T) {
	testCases := []struct {
		node Node
		want NodeKind
	}{
		{Node{Code: "AN1"}, KindPhase},
		{Node{Code: "SNNLEC"}, KindPhase},
		{Node{Code: "ANLUNI"}, KindPhase},
		{Node{Code: "SNLDEF"}, KindPhase},
		{Node{Code: "AN1-DEPOT"}, KindCommittee},
		{Node{Code: "AN1-COM-FOND-RAPPORT"}, KindFloor},
		{Node{Code: "SN1-DEBATS-SEANCE"}, KindFloor},
		{Node{Code: "AN1-COM", Children: []Node{{Code: "AN1-COM-FOND"}}}, KindContainer},
		{Node{Code: "PROM-PUB"}, KindUnknown},
	}

	for _, testCase := range testCases {
		if got := testCase.node.Kind(); got != testCase.want {
			t.Errorf("Node{Code: %q}.Kind() = %s, want %s", testCase.node.Code, got, testCase.want)
		}
	}
}
