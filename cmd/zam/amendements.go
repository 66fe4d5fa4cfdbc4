package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/export"
	"github.com/MelodieDahi/zam/pkg/pipeline"
	"github.com/MelodieDahi/zam/pkg/reconcile"
	"github.com/MelodieDahi/zam/pkg/senat"
)

func amendementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amendements",
		Short: "Fetch and export the amendements of a text",
		Long: `Fetch the amendements deposited on a text, reconcile them with the
discussion order and store them, or export the stored ones.

Examples:
  zam amendements fetch --session 2017-2018 --texte 63
  zam amendements fetch --session 2017-2018 --texte 63 --organe PO211490 --phase commission
  zam amendements import-liasse --file liasse.xml --export Dossiers_Legislatifs_XV.json --referentiel AMO10_deputes_actifs_mandats_actifs_organes_XV.json
  zam amendements export --session 2017-2018 --texte 63 --format json`,
	}

	cmd.AddCommand(amendementsFetchCmd())
	cmd.AddCommand(amendementsImportLiasseCmd())
	cmd.AddCommand(amendementsExportCmd())

	return cmd
}

func amendementsFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch, reconcile and store the amendements of a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			phaseName, _ := cmd.Flags().GetString("phase")

			scope, err := scopeFromFlags(cmd)
			if err != nil {
				return err
			}
			if scope.Chambre != dossier.Senat {
				return fmt.Errorf("fetching amendements is only supported for the Sénat")
			}
			phase, err := senat.ParsePhase(phaseName)
			if err != nil {
				return err
			}
			opts, err := diffOptions()
			if err != nil {
				return err
			}

			connector, err := newConnector()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			fmt.Println("Récupération des amendements déposés...")
			deposits, err := connector.FetchAmendements(ctx, scope.Session, scope.NumTexte)
			if errors.Is(err, errs.ErrNotFound) {
				return errors.New("Aucun amendement déposé pour l'instant!")
			}
			if err != nil {
				return fmt.Errorf("failed to fetch amendements: %w", err)
			}

			fmt.Println("Récupération des amendements soumis à la discussion...")
			discussion, err := connector.FetchDiscussion(ctx, scope.Session, scope.NumTexte, phase)
			switch {
			case errors.Is(err, errs.ErrNotFound):
				logger.Info("no discussion order published yet", zap.Stringer("scope", scope))
			case err != nil:
				return fmt.Errorf("failed to fetch discussion order: %w", err)
			}

			fmt.Println("Récupération des sénateurs...")
			registry := amendement.NewRegistryCache(connector.FetchSenateurs)
			senateurs, err := registry.Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch senateurs: %w", err)
			}

			ingest := pipeline.New(cfg.Ingest.Workers, logger.Named("pipeline"), reconcile.Options{StrictJoin: cfg.Ingest.StrictJoin})
			result, err := ingest.Run(ctx, pipeline.Input{
				Deposits:   deposits,
				Discussion: discussion,
				Registry:   senateurs,
				Normalizer: amendement.Normalizer{
					Chambre:  scope.Chambre,
					Session:  scope.Session,
					NumTexte: scope.NumTexte,
					Organe:   scope.Organe,
				},
			})
			if err != nil {
				return err
			}

			if errored := result.Report.Errored(); len(errored) > 0 {
				fmt.Printf("Les amendements %s n’ont pu être récupérés.\n", strings.Join(errored, ", "))
			}
			if len(result.Amendements) == 0 {
				return errors.New("Aucun amendement n’a pu être trouvé.")
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			diff, err := db.Upsert(ctx, scope, result.Amendements, opts)
			if err != nil {
				return fmt.Errorf("failed to store amendements: %w", err)
			}
			for _, message := range diff.Messages() {
				fmt.Println(message)
			}
			return nil
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().String("phase", string(senat.PhaseSeance), "Discussion phase (commission, seance)")

	return cmd
}

func amendementsImportLiasseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-liasse",
		Short: "Import an Assemblée nationale amendement liasse (XML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			liassePath, _ := cmd.Flags().GetString("file")
			exportPath, _ := cmd.Flags().GetString("export")
			referentielPath, _ := cmd.Flags().GetString("referentiel")

			opts, err := diffOptions()
			if err != nil {
				return err
			}
			textes, err := loadTextes(exportPath)
			if err != nil {
				return err
			}
			acteurs, organes, err := loadReferentiel(referentielPath)
			if err != nil {
				return err
			}

			file, err := os.Open(liassePath)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", liassePath, err)
			}
			defer file.Close()

			liasse, err := amendement.ImportLiasse(file, amendement.LiasseRefs{
				Textes:  textes,
				Acteurs: acteurs,
				Organes: organes,
			})
			if err != nil {
				return err
			}
			for _, miss := range liasse.Misses {
				logger.Warn("unresolved reference", zap.Error(miss))
			}
			for _, rowErr := range liasse.Errors {
				logger.Warn("skipping malformed amendement", zap.Error(rowErr))
			}
			if len(liasse.Amendements) == 0 {
				return errors.New("Aucun amendement n’a pu être trouvé.")
			}

			byScope := make(map[amendement.Scope][]amendement.Amendement)
			var scopes []amendement.Scope
			for _, a := range liasse.Amendements {
				if _, seen := byScope[a.Scope()]; !seen {
					scopes = append(scopes, a.Scope())
				}
				byScope[a.Scope()] = append(byScope[a.Scope()], a)
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			for _, scope := range scopes {
				diff, err := db.Upsert(cmd.Context(), scope, byScope[scope], opts)
				if err != nil {
					return fmt.Errorf("failed to store amendements: %w", err)
				}
				for _, message := range diff.Messages() {
					fmt.Println(message)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("file", "", "Liasse file (XML)")
	cmd.Flags().StringP("export", "e", "", "Open-data dossiers export file (JSON)")
	cmd.Flags().String("referentiel", "", "Open-data deputies and bodies export file (JSON)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("export")
	_ = cmd.MarkFlagRequired("referentiel")

	return cmd
}

func amendementsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored amendements of a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")

			scope, err := scopeFromFlags(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("amendements_%s_%d.%s", scope.Session, scope.NumTexte, format)
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			amendements, err := db.ListAmendements(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if len(amendements) == 0 {
				return errors.New("Aucun amendement déposé pour l'instant!")
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer file.Close()

			count, err := export.Write(file, export.OutputFormat(format), amendements)
			if err != nil {
				return err
			}
			fmt.Printf("%d amendements exportés dans %s\n", count, output)
			return nil
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output file (default: amendements_<session>_<texte>.<format>)")
	cmd.Flags().StringP("format", "f", string(export.FormatCSV), "Output format (csv, json)")

	return cmd
}
