// Package mcp exposes the journal over the Model Context Protocol.
//
// Assistants can submit and classify entries, browse entries and goals, and
// edit goals by hand. Every tool acts on behalf of the single user the
// server was started for.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Veraticus/dear-diary/internal/engine"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
)

const (
	defaultEntryLimit = 20
	maxEntryLimit     = 200
	dateLayout        = "2006-01-02"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Journal *engine.Journal
	Version string
	User    model.UserID
}

// tools binds handlers to one journal and user. mu serializes every
// handler that touches the store; mcp-go dispatches calls concurrently.
// Classification runs outside mu.
type tools struct {
	journal *engine.Journal
	user    model.UserID
	mu      sync.Mutex
}

// NewServer creates an MCP server with the diary tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	user := cfg.User
	if user == 0 {
		user = model.DefaultUserID
	}

	s := server.NewMCPServer(
		"Diary",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	t := &tools{journal: cfg.Journal, user: user}
	t.registerSubmit(s)
	t.registerClassify(s)
	t.registerEntries(s)
	t.registerDeleteEntry(s)
	t.registerGoals(s)
	t.registerAddGoal(s)
	t.registerUpdateGoal(s)
	t.registerGoalLinks(s)
	t.registerGoalsResource(s)

	return s
}

// Serve runs the server on stdio until ctx is canceled or stdin closes.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

func (t *tools) registerSubmit(s *server.MCPServer) {
	tool := mcp.NewTool("diary_submit",
		mcp.WithDescription("Save a journal entry. The entry is classified, stored with its tags, and linked to any goals it creates, advances or completes."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The journal entry text"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		result, err := t.journal.Classify(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("submit failed: %v", err)), nil
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		entry, outcome, err := t.journal.Record(ctx, t.user, result)
		if entry == nil {
			return mcp.NewToolResultError(fmt.Sprintf("submit failed: %v", err)), nil
		}

		resp := submitResponse{
			Entry: newEntryView(*entry),
			Goals: outcomeView{
				Created:    nonNil(outcome.Created),
				Progressed: nonNil(outcome.Progressed),
				Completed:  nonNil(outcome.Completed),
			},
		}
		if err != nil {
			resp.Warning = err.Error()
		}
		return jsonResult(resp)
	})
}

func (t *tools) registerClassify(s *server.MCPServer) {
	tool := mcp.NewTool("diary_classify",
		mcp.WithDescription("Classify text into journal categories without saving it."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to classify"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		return jsonResult(t.journal.Preview(ctx, text))
	})
}

func (t *tools) registerEntries(s *server.MCPServer) {
	tool := mcp.NewTool("diary_entries",
		mcp.WithDescription("List journal entries, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of entries (default: %d, max: %d)", defaultEntryLimit, maxEntryLimit)),
		),
		mcp.WithString("category",
			mcp.Description("Only entries with this main category, e.g. Goals"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := service.EntryFilter{Limit: defaultEntryLimit}
		if limitVal, err := req.RequireFloat("limit"); err == nil && limitVal > 0 {
			filter.Limit = min(int(limitVal), maxEntryLimit)
		}
		if category, err := req.RequireString("category"); err == nil && category != "" {
			filter.Category = model.Category(category)
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		entries, err := t.journal.ListEntries(ctx, t.user, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list entries: %v", err)), nil
		}
		views := make([]entryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, newEntryView(e))
		}
		return jsonResult(views)
	})
}

func (t *tools) registerDeleteEntry(s *server.MCPServer) {
	tool := mcp.NewTool("diary_delete_entry",
		mcp.WithDescription("Delete a journal entry and its tags. Goal links to the entry are kept."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithNumber("entry_id",
			mcp.Required(),
			mcp.Description("ID of the entry to delete"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireFloat("entry_id")
		if err != nil {
			return mcp.NewToolResultError("entry_id is required"), nil
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		if err := t.journal.DeleteEntry(ctx, t.user, int64(id)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete entry: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted entry %d", int64(id))), nil
	})
}

func (t *tools) registerGoals(s *server.MCPServer) {
	tool := mcp.NewTool("diary_goals",
		mcp.WithDescription("List goals, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("status",
			mcp.Description("Only goals with this status"),
			mcp.Enum(statusNames()...),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var want model.GoalStatus
		if status, err := req.RequireString("status"); err == nil && status != "" {
			parsed, err := model.ParseGoalStatus(status)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			want = parsed
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		list, err := t.journal.ListGoals(ctx, t.user)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list goals: %v", err)), nil
		}
		views := make([]goalView, 0, len(list))
		for _, g := range list {
			if want == "" || g.Status == want {
				views = append(views, newGoalView(g))
			}
		}
		return jsonResult(views)
	})
}

func (t *tools) registerAddGoal(s *server.MCPServer) {
	tool := mcp.NewTool("diary_add_goal",
		mcp.WithDescription("Create a goal by hand."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("What the goal is"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: planned)"),
			mcp.Enum(statusNames()...),
		),
		mcp.WithNumber("target_amount",
			mcp.Description("Money target, if any"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date as YYYY-MM-DD"),
		),
		mcp.WithString("sub_category",
			mcp.Description("Goal sub-category, e.g. Savings/Finance"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		goal := engine.NewGoal{Text: text}
		if status, err := req.RequireString("status"); err == nil {
			goal.Status = model.GoalStatus(status)
		}
		if amount, err := req.RequireFloat("target_amount"); err == nil {
			goal.TargetAmount = &amount
		}
		if due, err := req.RequireString("due_date"); err == nil && due != "" {
			parsed, err := time.Parse(dateLayout, due)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due_date %q: want YYYY-MM-DD", due)), nil
			}
			goal.DueDate = &parsed
		}
		if sub, err := req.RequireString("sub_category"); err == nil {
			goal.SubCategory = sub
		}
		if notes, err := req.RequireString("notes"); err == nil {
			goal.Notes = notes
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		created, err := t.journal.AddGoal(ctx, t.user, goal)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("add goal: %v", err)), nil
		}
		return jsonResult(newGoalView(*created))
	})
}

func (t *tools) registerUpdateGoal(s *server.MCPServer) {
	tool := mcp.NewTool("diary_update_goal",
		mcp.WithDescription("Change a goal's text or status. Omitted fields keep their current value."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("goal_id",
			mcp.Required(),
			mcp.Description("ID of the goal"),
		),
		mcp.WithString("text",
			mcp.Description("New goal text"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(statusNames()...),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idVal, err := req.RequireFloat("goal_id")
		if err != nil {
			return mcp.NewToolResultError("goal_id is required"), nil
		}
		id := int64(idVal)

		t.mu.Lock()
		defer t.mu.Unlock()

		current, err := t.journal.GetGoal(ctx, t.user, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("update goal: %v", err)), nil
		}
		update := engine.GoalUpdate{Text: current.Text, Status: current.Status}
		if text, err := req.RequireString("text"); err == nil && text != "" {
			update.Text = text
		}
		if status, err := req.RequireString("status"); err == nil && status != "" {
			update.Status = model.GoalStatus(status)
		}

		updated, err := t.journal.UpdateGoal(ctx, t.user, id, update)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("update goal: %v", err)), nil
		}
		return jsonResult(newGoalView(*updated))
	})
}

func (t *tools) registerGoalLinks(s *server.MCPServer) {
	tool := mcp.NewTool("diary_goal_links",
		mcp.WithDescription("Show which entries created, advanced or completed a goal, oldest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("goal_id",
			mcp.Required(),
			mcp.Description("ID of the goal"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idVal, err := req.RequireFloat("goal_id")
		if err != nil {
			return mcp.NewToolResultError("goal_id is required"), nil
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		links, err := t.journal.GoalLinks(ctx, t.user, int64(idVal))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("goal links: %v", err)), nil
		}
		views := make([]linkView, 0, len(links))
		for _, l := range links {
			views = append(views, linkView{
				EntryID:   l.EntryID,
				LinkType:  string(l.LinkType),
				CreatedAt: l.CreatedAt.Format(time.RFC3339),
			})
		}
		return jsonResult(views)
	})
}

func (t *tools) registerGoalsResource(s *server.MCPServer) {
	resource := mcp.NewResource(
		"diary://goals",
		"Goals",
		mcp.WithResourceDescription("Every goal in the journal with its status and target."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		list, err := t.journal.ListGoals(ctx, t.user)
		if err != nil {
			return nil, fmt.Errorf("listing goals: %w", err)
		}
		views := make([]goalView, 0, len(list))
		for _, g := range list {
			views = append(views, newGoalView(g))
		}

		data, _ := json.MarshalIndent(views, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func statusNames() []string {
	statuses := model.GoalStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return names
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
