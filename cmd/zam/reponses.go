package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MelodieDahi/zam/pkg/reponses"
)

func reponsesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reponses",
		Short: "Manage the government's responses to amendements",
	}

	cmd.AddCommand(reponsesImportCmd())

	return cmd
}

func reponsesImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import responses from a spreadsheet (CSV)",
		Long: `Import the government's responses from a CSV file with the columns
"N°", "Avis du Gouvernement", "Objet (article / amdt)" and
"Avis et observations de l'administration référente".

An empty or "idem" response repeats the previous one.

Example:
  zam reponses import --session 2017-2018 --texte 63 --file reponses.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")

			scope, err := scopeFromFlags(cmd)
			if err != nil {
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer file.Close()

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			importer := reponses.NewImporter(db, logger.Named("reponses"))
			summary, err := importer.Import(cmd.Context(), file, scope)
			if err != nil {
				return err
			}
			for _, message := range summary.Messages() {
				fmt.Println(message)
			}
			return nil
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().String("file", "", "CSV file of responses")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
