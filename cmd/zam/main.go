package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/config"
	"github.com/MelodieDahi/zam/pkg/dossier"
	"github.com/MelodieDahi/zam/pkg/logging"
	"github.com/MelodieDahi/zam/pkg/reconcile"
	"github.com/MelodieDahi/zam/pkg/senat"
	"github.com/MelodieDahi/zam/pkg/store"
)

var version = "0.1.0"

// Global state set up before each command runs.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zam",
		Short: "Legislative amendment tracker",
		Long: `Zam ingests the amendments deposited on French bills, reconciles them
with the order in which they are discussed, and keeps a database of them
alongside the government's responses.

Examples:
  zam dossiers --export Dossiers_Legislatifs_XV.json
  zam lectures add --export Dossiers_Legislatifs_XV.json --dossier DLR5L15N36030 --texte PRJLSNR5S299B0063
  zam amendements fetch --session 2017-2018 --texte 63 --organe PO78718
  zam reponses import --session 2017-2018 --texte 63 --organe PO78718 --file reponses.csv
  zam amendements export --session 2017-2018 --texte 63 --organe PO78718 --output amendements.csv`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}

			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			cfg = loaded

			logger, err = logging.New(cfg.Logging, verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(amendementsCmd())
	rootCmd.AddCommand(dossiersCmd())
	rootCmd.AddCommand(lecturesCmd())
	rootCmd.AddCommand(reponsesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens and migrates the configured database.
func openStore() (*store.Store, error) {
	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newConnector() (*senat.Connector, error) {
	rateLimit, err := cfg.GetRateLimit()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, err
	}

	connectorConfig := senat.DefaultConfig()
	connectorConfig.BaseURL = cfg.Senat.BaseURL
	connectorConfig.DataURL = cfg.Senat.DataURL
	connectorConfig.UserAgent = cfg.Senat.UserAgent
	connectorConfig.RateLimit = rateLimit
	if timeout > 0 {
		connectorConfig.HTTPClient = &http.Client{Timeout: timeout}
	}
	connectorConfig.Logger = logger.Named("senat")
	return senat.NewConnector(connectorConfig), nil
}

func diffOptions() (reconcile.DiffOptions, error) {
	var opts reconcile.DiffOptions
	for _, name := range cfg.Ingest.OperatorFields {
		field, err := reconcile.ParseField(name)
		if err != nil {
			return opts, fmt.Errorf("invalid ingest.operator_fields: %w", err)
		}
		opts.OperatorFields = append(opts.OperatorFields, field)
	}
	return opts, nil
}

// addScopeFlags registers the flags identifying a set of amendements.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("chambre", string(dossier.Senat), "Chamber (an, senat)")
	cmd.Flags().String("session", "", "Parliamentary session (e.g. 2017-2018)")
	cmd.Flags().Int("texte", 0, "Text number")
	cmd.Flags().String("organe", "", "Body examining the text (default: the chamber's séance publique)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("texte")
}

func scopeFromFlags(cmd *cobra.Command) (amendement.Scope, error) {
	chambreName, _ := cmd.Flags().GetString("chambre")
	session, _ := cmd.Flags().GetString("session")
	numTexte, _ := cmd.Flags().GetInt("texte")
	organe, _ := cmd.Flags().GetString("organe")

	chambre, err := dossier.ParseChambre(chambreName)
	if err != nil {
		return amendement.Scope{}, err
	}
	if numTexte <= 0 {
		return amendement.Scope{}, fmt.Errorf("--texte must be a positive number, got %d", numTexte)
	}
	if organe == "" {
		organe = defaultOrgane(chambre)
	}
	return amendement.Scope{Chambre: chambre, Session: session, NumTexte: numTexte, Organe: organe}, nil
}

// defaultSession is the session a new reading is registered under.
func defaultSession(chambre dossier.Chambre) string {
	if chambre == dossier.AN {
		return "15"
	}
	return "2017-2018"
}

// defaultOrgane is the séance publique of each chamber.
func defaultOrgane(chambre dossier.Chambre) string {
	if chambre == dossier.AN {
		return "PO717460"
	}
	return "PO78718"
}
