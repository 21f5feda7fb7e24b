package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
	"github.com/Veraticus/dear-diary/internal/engine"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import entries from a text file",
		Long: `Import a batch of journal entries from a plain text file.

Each paragraph (lines separated by a blank line) becomes one entry and is
classified and reconciled against your goals in file order, exactly as if
it had been written with "diary add". Blank paragraphs are skipped and
counted; oversized ones are saved as Unknown.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0]) // #nosec G304 -- path chosen by the user
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	texts, err := engine.SplitEntries(r)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(texts) == 0 {
		fmt.Fprintln(w, cli.FormatWarning("No entries found in "+args[0]))
		return nil
	}

	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "Entries imported so far are saved.")
	defer stop()

	progress := cli.NewProgress(cmd.ErrOrStderr(), len(texts), "Importing entries...")
	summary, err := a.journal.Import(ctx, a.user, texts, progress)

	fmt.Fprintln(w, cli.RenderBox("Import Summary", formatImportSummary(summary, len(texts))))
	if handler.WasInterrupted() {
		return nil
	}
	return err
}

func formatImportSummary(s engine.ImportSummary, total int) string {
	return fmt.Sprintf("  • Entries read: %d\n", total) +
		fmt.Sprintf("  • Saved: %d\n", s.Submitted) +
		fmt.Sprintf("  • Skipped (blank): %d\n", s.Rejected) +
		fmt.Sprintf("  • Saved as Unknown: %d\n", s.Unclassified) +
		fmt.Sprintf("  • Goals created: %d\n", s.GoalsCreated) +
		fmt.Sprintf("  • Goal progress: %d\n", s.GoalsProgressed) +
		fmt.Sprintf("  • Goals completed: %d", s.GoalsCompleted)
}
