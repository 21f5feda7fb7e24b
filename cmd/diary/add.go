package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [text|-]",
		Short: "Write a journal entry",
		Long: `Classify and save a journal entry.

The entry text comes from the arguments, or from stdin when there are
none or the only argument is "-". Goals mentioned in the entry are
created, advanced or completed automatically.`,
		Example: `  diary add "Ran 5k this morning, finally finished my first race"
  pbpaste | diary add -`,
		RunE: runAdd,
	}

	cmd.Flags().Bool("dry-run", false, "Classify only; save nothing")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if dryRun {
		fmt.Fprintln(w, cli.RenderBox("Preview (not saved)", cli.FormatClassification(a.journal.Preview(ctx, text))))
		return nil
	}

	entry, outcome, err := a.journal.Submit(ctx, a.user, text)
	if entry == nil {
		return err
	}

	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Saved entry #%d", entry.ID)))
	fmt.Fprintln(w, cli.FormatClassification(entryResult(entry)))
	if err != nil {
		// The entry is stored; only goal tracking failed.
		return err
	}
	fmt.Fprintln(w, cli.FormatOutcome(outcome))
	return nil
}
