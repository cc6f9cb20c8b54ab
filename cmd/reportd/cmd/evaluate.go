package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/db"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/store"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/report"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a report config against a form, one-shot",
	Long:  `Loads a report config from a JSON file, runs the report pipeline over the form's submissions, and prints the result as JSON on stdout.`,
	RunE:  runEvaluate,
}

var (
	evaluateFormID     string
	evaluateConfigFile string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateFormID, "form", "", "primary form ID")
	evaluateCmd.Flags().StringVar(&evaluateConfigFile, "report-config", "", "path to report config JSON file")
	evaluateCmd.MarkFlagRequired("form")
	evaluateCmd.MarkFlagRequired("report-config")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}

	raw, err := os.ReadFile(evaluateConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read report config: %w", err)
	}
	var cfg types.ReportConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to parse report config: %w", err)
	}

	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	forms := store.NewFormStore(queries)

	fields, err := forms.Fields(evaluateFormID)
	if err != nil {
		return fmt.Errorf("failed to load fields: %w", err)
	}
	rowSets, err := forms.RowSets(evaluateFormID, cfg)
	if err != nil {
		return fmt.Errorf("failed to load submissions: %w", err)
	}

	result, err := report.Evaluate(report.Request{
		Fields:        fields,
		Rows:          rowSets,
		PrimaryFormID: evaluateFormID,
		Config:        cfg,
		Now:           time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
