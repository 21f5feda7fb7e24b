package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
)

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Browse and delete journal entries",
	}

	cmd.AddCommand(entriesListCmd())
	cmd.AddCommand(entriesShowCmd())
	cmd.AddCommand(entriesDeleteCmd())

	return cmd
}

func entriesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			category, _ := cmd.Flags().GetString("category")

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.ListEntries(cmd.Context(), a.user, service.EntryFilter{
				Category: model.Category(category),
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, cli.FormatInfo("No entries yet. Write one with: diary add"))
				return nil
			}
			fmt.Fprintln(w, cli.EntryTable(entries))
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().String("category", "", "Only entries with this main category")

	return cmd
}

func entriesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry with its classification and goal links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.GetEntry(cmd.Context(), a.user, id)
			if err != nil {
				return err
			}
			links, err := a.store.ListLinksForEntry(cmd.Context(), id)
			if err != nil {
				return err
			}

			body := entry.Text + "\n\n" + cli.FormatClassification(entryResult(entry))
			for _, l := range links {
				body += fmt.Sprintf("\n%s goal #%d", l.LinkType, l.GoalID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(
				fmt.Sprintf("Entry #%d  %s", entry.ID, entry.CreatedAt.Local().Format("2006-01-02 15:04")), body))
			return nil
		},
	}
}

func entriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry and its tags",
		Long: `Delete an entry and its tags.

Goals the entry created or advanced keep their history; their links
still name the deleted entry id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.journal.DeleteEntry(cmd.Context(), a.user, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted entry #%d", id)))
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: want a positive number", s)
	}
	return id, nil
}
