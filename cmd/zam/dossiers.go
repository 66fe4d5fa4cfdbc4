package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/dossier"
)

func dossiersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dossiers",
		Short: "List the readings found in an open-data export",
		Long: `List the legislative dossiers of an Assemblée nationale open-data export
and the readings (lectures) they contain.

Examples:
  zam dossiers --export Dossiers_Legislatifs_XV.json
  zam dossiers --export Dossiers_Legislatifs_XV.json --dossier DLR5L15N36030`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exportPath, _ := cmd.Flags().GetString("export")
			dossierUID, _ := cmd.Flags().GetString("dossier")

			dossiers, err := loadDossiers(exportPath)
			if err != nil {
				return err
			}

			if dossierUID != "" {
				found, ok := dossier.FindDossier(dossiers, dossierUID)
				if !ok {
					return fmt.Errorf("dossier %s not found in %s", dossierUID, exportPath)
				}
				dossiers = []*dossier.Dossier{found}
			}

			for _, d := range dossiers {
				if d.Lectures.Len() == 0 && dossierUID == "" {
					continue
				}
				fmt.Printf("%s  %s\n", d.UID, d.Titre)
				for texteUID, lecture := range d.Lectures.All() {
					fmt.Printf("  %-20s %s\n", texteUID, lecture)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("export", "e", "", "Open-data export file (JSON)")
	cmd.Flags().String("dossier", "", "Only show this dossier")
	_ = cmd.MarkFlagRequired("export")

	return cmd
}

// loadDossiers decodes an export file and builds its dossiers. Reference
// data problems are logged and do not abort the build.
func loadDossiers(path string) ([]*dossier.Dossier, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	export, err := dossier.DecodeExport(file)
	if err != nil {
		return nil, err
	}

	textes, texteErrs := dossier.ParseTextes(export.Documents)
	for _, texteErr := range texteErrs {
		logger.Warn("skipping malformed texte", zap.Error(texteErr))
	}

	builder := dossier.NewBuilder(logger.Named("dossier"), cfg.Ingest.MaxTreeDepth)
	dossiers, report := builder.BuildAll(export, textes)
	logger.Debug("dossiers built",
		zap.Int("dossiers", len(dossiers)),
		zap.Int("textes", len(textes)),
		zap.Int("missing", len(report.Missing)),
		zap.Int("truncated", len(report.Truncated)))
	return dossiers, nil
}

// loadTextes decodes an export file and indexes its bills by uid.
func loadTextes(path string) (map[string]dossier.Texte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	export, err := dossier.DecodeExport(file)
	if err != nil {
		return nil, err
	}
	textes, texteErrs := dossier.ParseTextes(export.Documents)
	for _, texteErr := range texteErrs {
		logger.Warn("skipping malformed texte", zap.Error(texteErr))
	}
	return textes, nil
}

// loadReferentiel reads the deputies and bodies of an AMO export.
func loadReferentiel(path string) (amendement.Acteurs, amendement.Organes, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open referentiel: %w", err)
	}
	defer file.Close()

	return amendement.DecodeReferentiel(file)
}
