package dossier

import (
	"go.uber.org/zap"

	"github.com/MelodieDahi/zam/pkg/errs"
)

// BuildReport lists what the builder had to leave out.
type BuildReport struct {
	// Missing holds readings whose text was not found in reference data.
	Missing []errs.LookupMiss
	// Truncated holds one error per subtree cut by the depth bound.
	Truncated []error
}

// Merge appends the entries of other to the report.
func (r *BuildReport) Merge(other BuildReport) {
	r.Missing = append(r.Missing, other.Missing...)
	r.Truncated = append(r.Truncated, other.Truncated...)
}

// Builder materializes readings into Lectures.
type Builder struct {
	Walker Walker
	Logger *zap.Logger
}

// NewBuilder returns a builder that logs to logger (nil disables logging).
func NewBuilder(logger *zap.Logger, maxDepth int) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Walker: Walker{MaxDepth: maxDepth}, Logger: logger}
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// Build walks the procedure tree and resolves each reading against
// textes. Readings whose text is unknown are dropped with a warning:
// procedure and reference data are fetched independently and may be out
// of sync. When the same text uid is announced twice, the later reading
// replaces the earlier one but keeps its position.
func (b *Builder) Build(uid, titre string, root Node, textes map[string]Texte) (*Dossier, BuildReport) {
	logger := b.logger().With(zap.String("dossier", uid))
	dossier := &Dossier{UID: uid, Titre: titre, Lectures: NewLectures()}
	var report BuildReport

	for reading, walkErr := range b.Walker.Walk(root) {
		if walkErr != nil {
			logger.Warn("procedure tree truncated", zap.Error(walkErr))
			report.Truncated = append(report.Truncated, walkErr)
			continue
		}

		texte, found := textes[reading.TexteUID]
		if !found {
			miss := errs.LookupMiss{Kind: errs.LookupTexte, Key: reading.TexteUID, Context: reading.Label()}
			logger.Warn("dropping reading of unknown texte",
				zap.String("texte", reading.TexteUID),
				zap.String("stage", reading.Label()))
			report.Missing = append(report.Missing, miss)
			continue
		}

		dossier.Lectures.Set(texte.UID, Lecture{
			Chambre: reading.Chambre,
			Titre:   reading.Label(),
			Texte:   texte,
		})
	}

	logger.Debug("dossier built",
		zap.Int("lectures", dossier.Lectures.Len()),
		zap.Int("missing", len(report.Missing)))
	return dossier, report
}
