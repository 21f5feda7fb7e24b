package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [text|-]",
		Short: "Classify text without saving it",
		Long: `Run the classifier on some text and show the categories and scores.

Nothing is written to the journal and the database is not opened.`,
		RunE: runClassify,
	}

	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")

	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	c, handle, err := newClassifier()
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	result := c.Classify(ctx, text)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintln(w, cli.FormatClassification(result))
	return nil
}
