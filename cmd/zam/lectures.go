package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/store"
)

func lecturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lectures",
		Short: "Manage the readings tracked in the database",
		Long: `Register readings found in an open-data export and list the registered
ones.

Examples:
  zam lectures add --export Dossiers_Legislatifs_XV.json --dossier DLR5L15N36030 --texte PRJLSNR5S299B0063
  zam lectures list`,
	}

	cmd.AddCommand(lecturesAddCmd())
	cmd.AddCommand(lecturesListCmd())

	return cmd
}

func lecturesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportPath, _ := cmd.Flags().GetString("export")
			dossierUID, _ := cmd.Flags().GetString("dossier")
			texteUID, _ := cmd.Flags().GetString("texte")
			session, _ := cmd.Flags().GetString("session")
			organe, _ := cmd.Flags().GetString("organe")

			dossiers, err := loadDossiers(exportPath)
			if err != nil {
				return err
			}
			found, ok := dossier.FindDossier(dossiers, dossierUID)
			if !ok {
				return fmt.Errorf("dossier %s not found in %s", dossierUID, exportPath)
			}
			lecture, ok := found.Lectures.Get(texteUID)
			if !ok {
				return fmt.Errorf("no reading of texte %s in dossier %s", texteUID, dossierUID)
			}

			if session == "" {
				session = defaultSession(lecture.Chambre)
			}
			if organe == "" {
				organe = defaultOrgane(lecture.Chambre)
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			err = db.CreateLecture(cmd.Context(), store.LectureRecord{
				Chambre:    string(lecture.Chambre),
				Session:    session,
				NumTexte:   lecture.Texte.Numero,
				Organe:     organe,
				Titre:      lecture.Titre,
				DossierUID: found.UID,
				TexteUID:   lecture.Texte.UID,
			})
			if errors.Is(err, store.ErrLectureExists) {
				fmt.Println("Cette lecture existe déjà...")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("Lecture créée avec succès.")
			fmt.Printf("  %s\n", lecture)
			return nil
		},
	}

	cmd.Flags().StringP("export", "e", "", "Open-data export file (JSON)")
	cmd.Flags().String("dossier", "", "Dossier uid")
	cmd.Flags().String("texte", "", "Texte uid of the reading")
	cmd.Flags().String("session", "", "Parliamentary session (default: the chamber's current one)")
	cmd.Flags().String("organe", "", "Body examining the text (default: the chamber's séance publique)")
	_ = cmd.MarkFlagRequired("export")
	_ = cmd.MarkFlagRequired("dossier")
	_ = cmd.MarkFlagRequired("texte")

	return cmd
}

func lecturesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			lectures, err := db.ListLectures(cmd.Context())
			if err != nil {
				return err
			}
			if len(lectures) == 0 {
				fmt.Println("Aucune lecture enregistrée.")
				return nil
			}
			for _, lecture := range lectures {
				fmt.Printf("%-6s %-10s %5d %-10s %s\n",
					lecture.Chambre, lecture.Session, lecture.NumTexte, lecture.Organe, lecture.Titre)
			}
			return nil
		},
	}
}
