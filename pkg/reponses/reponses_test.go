package reponses

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
)

const sheet = `N°,Avis du Gouvernement,Objet (article / amdt),Avis et observations de l'administration référente
6,défavorable,<p>Objet du 6</p>,<p>Suppression contraire à l'équilibre du texte.</p>
7 rect.,  Sagesse ,,idem
abc,Favorable,,
9,Retrait sinon rejet,<script>x</script>Objet du 9,
12,Favorable,,<p>Accord.</p>
`

var testScope = amendement.Scope{Chambre: dossier.Senat, Session: "2017-2018", NumTexte: 63, Organe: "PO78718"}

type memorySetter struct {
	known   map[int]bool
	applied map[amendement.Key]amendement.Reponse
}

func (m *memorySetter) SetReponse(_ context.Context, key amendement.Key, reponse amendement.Reponse) error {
	if !m.known[key.Num] {
		return fmt.Errorf("%w: amendement %s", errs.ErrNotFound, key)
	}
	m.applied[key] = reponse
	return nil
}

func TestParse(t *testing.T) {
	lines, rowErrors, err := Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	require.Len(t, lines, 4)

	assert.Equal(t, 6, lines[0].Num)
	assert.Equal(t, "Défavorable", lines[0].Reponse.Avis)
	assert.Equal(t, "<p>Objet du 6</p>", lines[0].Reponse.Observations)

	assert.Equal(t, 7, lines[1].Num)
	assert.Equal(t, "Sagesse", lines[1].Reponse.Avis)
	assert.Equal(t, lines[0].Reponse.Reponse, lines[1].Reponse.Reponse, "idem repeats the previous reponse")

	assert.Equal(t, "Retrait sinon rejet", lines[2].Reponse.Avis)
	assert.Equal(t, lines[0].Reponse.Reponse, lines[2].Reponse.Reponse, "empty repeats the previous reponse")
	assert.NotContains(t, lines[2].Reponse.Observations, "<script>")

	assert.Equal(t, "<p>Accord.</p>", lines[3].Reponse.Reponse)
}

func TestParseMissingNumColumn(t *testing.T) {
	_, _, err := Parse(strings.NewReader("Numéro,Avis\n1,Favorable\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, _, err := Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	setter := &memorySetter{
		known:   map[int]bool{6: true, 7: true, 9: true},
		applied: make(map[amendement.Key]amendement.Reponse),
	}

	summary, err := NewImporter(setter, zap.New(core)).Import(context.Background(), strings.NewReader(sheet), testScope)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Loaded)
	assert.Len(t, summary.Errors, 2, "one bad number and one unknown amendement")
	assert.Equal(t, []string{
		"3 réponses chargées avec succès",
		"2 réponses n’ont pas pu être chargées",
	}, summary.Messages())

	key := amendement.Key{Chambre: dossier.Senat, Session: "2017-2018", NumTexte: 63, Organe: "PO78718", Num: 9}
	assert.Equal(t, "Retrait sinon rejet", setter.applied[key].Avis)
	assert.Equal(t, 2, recorded.Len())
}

func TestImportCancelled(t *testing.T) {
	setter := &memorySetter{known: map[int]bool{}, applied: make(map[amendement.Key]amendement.Reponse)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImporter(setter, nil).Import(ctx, strings.NewReader(sheet), testScope)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummaryMessagesWithoutErrors(t *testing.T) {
	summary := Summary{Loaded: 2}
	assert.Equal(t, []string{"2 réponses chargées avec succès"}, summary.Messages())
}
