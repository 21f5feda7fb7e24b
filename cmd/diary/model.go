package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the classification pipeline",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "Load the configured pipeline and report whether it is ready",
		Long: `Load the zero-shot pipeline for the configured backend (onnx, llm or
keyword) without classifying anything. Use it to check model paths and
credentials, or to warm caches.`,
		Args: cobra.NoArgs,
		RunE: runModelLoad,
	})

	return cmd
}

func runModelLoad(cmd *cobra.Command, _ []string) error {
	c, handle, err := newClassifier()
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	start := time.Now()
	if err := handle.Load(cmd.Context()); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Pipeline %q ready in %s", appConfig.Pipeline.Backend, time.Since(start).Round(time.Millisecond))))
	fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("%d categories", len(c.Taxonomy().Categories()))))
	return nil
}
