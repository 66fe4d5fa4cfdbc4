// Package reponses imports the government's positions on amendements from
// the spreadsheet filled in by the ministries.
package reponses

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/MelodieDahi/zam/pkg/amendement"
)

// Spreadsheet columns.
const (
	ColNum          = "N°"
	ColAvis         = "Avis du Gouvernement"
	ColObservations = "Objet (article / amdt)"
	ColReponse      = "Avis et observations de l'administration référente"
)

// repeatMarker in the reponse column repeats the previous reponse.
const repeatMarker = "idem"

// Setter stores the response of one amendement.
type Setter interface {
	SetReponse(ctx context.Context, key amendement.Key, reponse amendement.Reponse) error
}

// Line is one parsed row of the spreadsheet.
type Line struct {
	Num     int
	Reponse amendement.Reponse
}

// Summary counts the outcome of an import.
type Summary struct {
	Loaded int
	Errors []error
}

// Messages renders the summary shown to operators.
func (s Summary) Messages() []string {
	messages := []string{fmt.Sprintf("%d réponses chargées avec succès", s.Loaded)}
	if len(s.Errors) > 0 {
		messages = append(messages, fmt.Sprintf("%d réponses n’ont pas pu être chargées", len(s.Errors)))
	}
	return messages
}

// Parse reads the spreadsheet. Rows whose number cannot be parsed are
// reported in the returned slice of row errors; a missing header or an
// unreadable file is a hard error.
//
// An empty reponse cell, or one reading "idem", repeats the reponse of
// the previous row.
func Parse(r io.Reader) ([]Line, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for columnIndex, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = columnIndex
	}
	if _, ok := columns[ColNum]; !ok {
		return nil, nil, fmt.Errorf("missing %q column", ColNum)
	}

	cell := func(record []string, name string) string {
		columnIndex, ok := columns[name]
		if !ok || columnIndex >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[columnIndex])
	}

	var lines []Line
	var rowErrors []error
	previousReponse := ""
	for lineNumber := 2; ; lineNumber++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		num, _, err := amendement.ParseNum(cell(record, ColNum))
		if err != nil {
			rowErrors = append(rowErrors, fmt.Errorf("line %d: %w", lineNumber, err))
			continue
		}

		avis := cell(record, ColAvis)
		if canonical, ok := amendement.NormalizeAvis(avis); ok {
			avis = canonical
		}

		reponse := cell(record, ColReponse)
		if reponse == "" || strings.EqualFold(reponse, repeatMarker) {
			reponse = previousReponse
		}
		previousReponse = reponse

		lines = append(lines, Line{
			Num: num,
			Reponse: amendement.Reponse{
				Avis:         avis,
				Observations: amendement.CleanHTML(cell(record, ColObservations)),
				Reponse:      amendement.CleanHTML(reponse),
			},
		})
	}
	return lines, rowErrors, nil
}

// Importer applies a spreadsheet to the amendements of one scope.
type Importer struct {
	Setter Setter
	Logger *zap.Logger
}

// NewImporter returns an Importer writing through setter.
func NewImporter(setter Setter, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{Setter: setter, Logger: logger}
}

// Import parses r and stores each reponse on the matching amendement of
// scope. Unparseable numbers and unknown amendements are counted in
// Summary.Errors; only read failures and cancellation abort the import.
func (i *Importer) Import(ctx context.Context, r io.Reader, scope amendement.Scope) (Summary, error) {
	lines, rowErrors, err := Parse(r)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Errors: rowErrors}
	for _, rowErr := range rowErrors {
		i.Logger.Warn("invalid amendement number", zap.Error(rowErr))
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		key := amendement.Key{
			Chambre:  scope.Chambre,
			Session:  scope.Session,
			NumTexte: scope.NumTexte,
			Organe:   scope.Organe,
			Num:      line.Num,
		}
		if err := i.Setter.SetReponse(ctx, key, line.Reponse); err != nil {
			i.Logger.Warn("could not load reponse", zap.Int("num", line.Num), zap.Error(err))
			summary.Errors = append(summary.Errors, err)
			continue
		}
		summary.Loaded++
	}
	return summary, nil
}
