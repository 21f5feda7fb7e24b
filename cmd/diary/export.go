package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
	"github.com/Veraticus/dear-diary/internal/engine"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
	"github.com/Veraticus/dear-diary/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal",
	}

	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export goals and entries to Google Sheets",
		Long: `Write a Goals tab and an Entries tab to a Google Sheets spreadsheet.

Authentication uses either a service account key (sheets.service_account_path)
or OAuth2 credentials with a refresh token (see "diary auth sheets").
Existing tab contents are replaced on every export.`,
		Args: cobra.NoArgs,
		RunE: runExportSheets,
	}

	cmd.Flags().String("spreadsheet-id", "", "Spreadsheet to write to (overrides config; empty creates one)")

	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := appConfig.Sheets
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		cfg.SpreadsheetID = id
	}

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := buildReport(ctx, a.journal, a.user, time.Now())
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	id, err := exportReport(ctx, writer, report)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Exported %d goals and %d entries", len(report.Goals), len(report.Entries))))
	fmt.Fprintln(w, cli.FormatInfo("https://docs.google.com/spreadsheets/d/"+id))
	return nil
}

func exportReport(ctx context.Context, writer sheets.ReportWriter, report *sheets.Report) (string, error) {
	id, err := writer.Write(ctx, report)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return id, nil
}

// buildReport collects every goal and entry of the user, with the number
// of entries linked to each goal.
func buildReport(ctx context.Context, journal *engine.Journal, user model.UserID, now time.Time) (*sheets.Report, error) {
	goalList, err := journal.ListGoals(ctx, user)
	if err != nil {
		return nil, err
	}

	linkCounts := make(map[int64]int, len(goalList))
	for _, g := range goalList {
		links, err := journal.GoalLinks(ctx, user, g.ID)
		if err != nil {
			return nil, err
		}
		linkCounts[g.ID] = len(links)
	}

	entries, err := journal.ListEntries(ctx, user, service.EntryFilter{})
	if err != nil {
		return nil, err
	}

	return sheets.BuildReport(goalList, entries, linkCounts, now), nil
}
