package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/cli"
	"github.com/Veraticus/dear-diary/internal/engine"
	"github.com/Veraticus/dear-diary/internal/model"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Review and edit goals",
		Long: `Goals are created from journal entries automatically. These commands
list them, add goals by hand, change their text or status, and show
which entries moved them along.`,
	}

	cmd.AddCommand(goalsListCmd())
	cmd.AddCommand(goalsAddCmd())
	cmd.AddCommand(goalsUpdateCmd())
	cmd.AddCommand(goalsLinksCmd())

	return cmd
}

func goalsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statusFlag, _ := cmd.Flags().GetString("status")
			var status model.GoalStatus
			if statusFlag != "" {
				parsed, err := model.ParseGoalStatus(statusFlag)
				if err != nil {
					return err
				}
				status = parsed
			}

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.journal.ListGoals(cmd.Context(), a.user)
			if err != nil {
				return err
			}
			if status != "" {
				filtered := list[:0]
				for _, g := range list {
					if g.Status == status {
						filtered = append(filtered, g)
					}
				}
				list = filtered
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, cli.FormatInfo("No goals yet. Mention one in an entry or run: diary goals add"))
				return nil
			}
			fmt.Fprintln(w, cli.GoalTable(list))
			return nil
		},
	}

	cmd.Flags().String("status", "", "Only goals with this status (planned, in_progress, completed, dropped)")

	return cmd
}

func goalsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a goal by hand",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal := engine.NewGoal{Text: strings.Join(args, " ")}

			if cmd.Flags().Changed("target") {
				target, _ := cmd.Flags().GetFloat64("target")
				goal.TargetAmount = &target
			}
			if due, _ := cmd.Flags().GetString("due"); due != "" {
				parsed, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid --due %q: want YYYY-MM-DD", due)
				}
				goal.DueDate = &parsed
			}
			status, _ := cmd.Flags().GetString("status")
			goal.Status = model.GoalStatus(status)
			goal.SubCategory, _ = cmd.Flags().GetString("sub")
			goal.Notes, _ = cmd.Flags().GetString("notes")

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.journal.AddGoal(cmd.Context(), a.user, goal)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s Added goal #%d", cli.GoalIcon, created.ID)))
			return nil
		},
	}

	cmd.Flags().Float64("target", 0, "Money target")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().String("status", "", "Initial status (default planned)")
	cmd.Flags().String("sub", "", "Sub-category, e.g. Savings/Finance")
	cmd.Flags().String("notes", "", "Notes")

	return cmd
}

func goalsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a goal's text or status",
		Example: `  diary goals update 3 --status completed
  diary goals update 3 --text "Save $800 for the kayak"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			text, _ := cmd.Flags().GetString("text")
			status, _ := cmd.Flags().GetString("status")
			if text == "" && status == "" {
				return fmt.Errorf("nothing to update: pass --text or --status")
			}

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.journal.GetGoal(cmd.Context(), a.user, id)
			if err != nil {
				return err
			}
			update := engine.GoalUpdate{Text: current.Text, Status: current.Status}
			if text != "" {
				update.Text = text
			}
			if status != "" {
				update.Status = model.GoalStatus(status)
			}

			updated, err := a.journal.UpdateGoal(cmd.Context(), a.user, id, update)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Goal #%d is now %s", updated.ID, cli.StatusBadge(updated.Status))))
			return nil
		},
	}

	cmd.Flags().String("text", "", "New goal text")
	cmd.Flags().String("status", "", "New status (planned, in_progress, completed, dropped)")

	return cmd
}

func goalsLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links <id>",
		Short: "Show the entries that created, advanced or completed a goal",
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

			goal, err := a.journal.GetGoal(cmd.Context(), a.user, id)
			if err != nil {
				return err
			}
			links, err := a.journal.GoalLinks(cmd.Context(), a.user, id)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Goal #%d: %s", goal.ID, goal.Text)))
			if len(links) == 0 {
				fmt.Fprintln(w, cli.FormatInfo("No linked entries"))
				return nil
			}
			fmt.Fprintln(w, cli.LinkTable(links))
			return nil
		},
	}
}
