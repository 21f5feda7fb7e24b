package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/classifier"
	"github.com/Veraticus/dear-diary/internal/engine"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/testutil"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

func setupServer(t *testing.T) (*server.MCPServer, *testutil.TestDB) {
	t.Helper()
	goalsDesc, ok := model.DefaultTaxonomy().Description(model.CategoryGoals)
	require.True(t, ok)

	return setupServerWithPipeline(t, zeroshot.NewStaticPipeline(map[string]float64{
		goalsDesc:         0.7,
		"Savings/Finance": 0.8,
	}))
}

func setupServerWithPipeline(t *testing.T, pipeline zeroshot.Pipeline) (*server.MCPServer, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := classifier.New(pipeline, model.DefaultTaxonomy(), classifier.DefaultConfig(), nil)
	journal := engine.New(db.Storage, c)
	return NewServer(ServerConfig{Journal: journal, Version: "test"}), db
}

type toolResult struct {
	Text    string
	IsError bool
}

// callTool sends a tools/call request through the JSON-RPC handler.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) toolResult {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      name,
			"arguments": args,
		},
	})
	require.NoError(t, err)

	respBytes, err := json.Marshal(srv.HandleMessage(context.Background(), raw))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &resp), string(respBytes))
	require.Nil(t, resp.Error, "JSON-RPC error")
	require.NotEmpty(t, resp.Result.Content)

	return toolResult{Text: resp.Result.Content[0].Text, IsError: resp.Result.IsError}
}

func decode[T any](t *testing.T, res toolResult) T {
	t.Helper()
	require.False(t, res.IsError, res.Text)
	var v T
	require.NoError(t, json.Unmarshal([]byte(res.Text), &v), res.Text)
	return v
}

func TestSubmitTool(t *testing.T) {
	srv, db := setupServer(t)

	resp := decode[submitResponse](t, callTool(t, srv, "diary_submit", map[string]any{
		"text": "I want to save $500 by June",
	}))
	assert.NotZero(t, resp.Entry.ID)
	assert.Equal(t, "Goals", resp.Entry.MainCategory)
	assert.Equal(t, []string{"Goals", "Savings/Finance"}, resp.Entry.Tags)
	require.Len(t, resp.Goals.Created, 1)
	assert.Empty(t, resp.Goals.Progressed)
	assert.Empty(t, resp.Warning)

	goals := db.MustGoals()
	require.Len(t, goals, 1)
	assert.Equal(t, resp.Goals.Created[0], goals[0].ID)
}

func TestSubmitToolRejectsEmptyText(t *testing.T) {
	srv, db := setupServer(t)

	res := callTool(t, srv, "diary_submit", map[string]any{"text": "   "})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "entry rejected")

	res = callTool(t, srv, "diary_submit", map[string]any{})
	assert.True(t, res.IsError)
	assert.Empty(t, db.MustGoals())
}

func TestClassifyToolStoresNothing(t *testing.T) {
	srv, db := setupServer(t)

	result := decode[model.ClassificationResult](t, callTool(t, srv, "diary_classify", map[string]any{
		"text": "I want to save $500 by June",
	}))
	assert.True(t, result.Success)
	assert.Equal(t, model.CategoryGoals, result.MainCategory)

	entries := decode[[]entryView](t, callTool(t, srv, "diary_entries", map[string]any{}))
	assert.Empty(t, entries)
	assert.Empty(t, db.MustGoals())
}

func TestEntriesAndDeleteTools(t *testing.T) {
	srv, _ := setupServer(t)

	for i := range 3 {
		callTool(t, srv, "diary_submit", map[string]any{"text": fmt.Sprintf("Entry number %d about my day", i)})
	}

	entries := decode[[]entryView](t, callTool(t, srv, "diary_entries", map[string]any{"limit": 2}))
	require.Len(t, entries, 2)
	assert.Greater(t, entries[0].ID, entries[1].ID, "newest first")

	res := callTool(t, srv, "diary_delete_entry", map[string]any{"entry_id": entries[0].ID})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "Deleted entry")

	res = callTool(t, srv, "diary_delete_entry", map[string]any{"entry_id": entries[0].ID})
	assert.True(t, res.IsError)

	entries = decode[[]entryView](t, callTool(t, srv, "diary_entries", map[string]any{"category": "Health"}))
	assert.Empty(t, entries)
}

func TestGoalTools(t *testing.T) {
	srv, _ := setupServer(t)

	added := decode[goalView](t, callTool(t, srv, "diary_add_goal", map[string]any{
		"text":          "Buy a kayak",
		"target_amount": 900,
		"due_date":      "2026-08-01",
	}))
	assert.Equal(t, "planned", added.Status)
	assert.Equal(t, "2026-08-01", added.DueDate)
	require.NotNil(t, added.TargetAmount)
	assert.InDelta(t, 900.0, *added.TargetAmount, 1e-9)

	updated := decode[goalView](t, callTool(t, srv, "diary_update_goal", map[string]any{
		"goal_id": added.ID,
		"status":  "in_progress",
	}))
	assert.Equal(t, "in_progress", updated.Status)
	assert.Equal(t, "Buy a kayak", updated.Text, "omitted text is kept")

	res := callTool(t, srv, "diary_update_goal", map[string]any{"goal_id": added.ID, "status": "someday"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "status must be one of")

	inProgress := decode[[]goalView](t, callTool(t, srv, "diary_goals", map[string]any{"status": "in_progress"}))
	require.Len(t, inProgress, 1)
	completed := decode[[]goalView](t, callTool(t, srv, "diary_goals", map[string]any{"status": "completed"}))
	assert.Empty(t, completed)

	res = callTool(t, srv, "diary_add_goal", map[string]any{"text": "x", "due_date": "next week"})
	assert.True(t, res.IsError)

	res = callTool(t, srv, "diary_goal_links", map[string]any{"goal_id": 999})
	assert.True(t, res.IsError)
}

func TestGoalLinksTool(t *testing.T) {
	srv, _ := setupServer(t)

	first := decode[submitResponse](t, callTool(t, srv, "diary_submit", map[string]any{
		"text": "I want to save $500 by June",
	}))
	require.Len(t, first.Goals.Created, 1)
	goalID := first.Goals.Created[0]

	second := decode[submitResponse](t, callTool(t, srv, "diary_submit", map[string]any{
		"text": "I want to save more this month",
	}))
	assert.Equal(t, []int64{goalID}, second.Goals.Progressed)

	links := decode[[]linkView](t, callTool(t, srv, "diary_goal_links", map[string]any{"goal_id": goalID}))
	require.Len(t, links, 2)
	assert.Equal(t, "created", links[0].LinkType)
	assert.Equal(t, "progress", links[1].LinkType)
	assert.Equal(t, second.Entry.ID, links[1].EntryID)
}

func TestConcurrentSubmits(t *testing.T) {
	srv, _ := setupServer(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callTool(t, srv, "diary_submit", map[string]any{"text": fmt.Sprintf("Walked the dog, day %d", i)})
		}()
	}
	wg.Wait()

	entries := decode[[]entryView](t, callTool(t, srv, "diary_entries", map[string]any{"limit": 50}))
	assert.Len(t, entries, 8)
}

func TestSubmitToolClassifiesOutsideStoreLock(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce, releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	pipeline := zeroshot.FuncPipeline(func(_ context.Context, _ string, labels []string) (model.LabelScores, error) {
		startOnce.Do(func() { close(started) })
		<-release
		return model.LabelScores{{Label: labels[0], Score: 0.9}}, nil
	})
	srv, _ := setupServerWithPipeline(t, pipeline)

	submitted := make(chan toolResult, 1)
	go func() {
		submitted <- callTool(t, srv, "diary_submit", map[string]any{"text": "Long day at work"})
	}()
	<-started

	listed := make(chan toolResult, 1)
	go func() {
		listed <- callTool(t, srv, "diary_goals", map[string]any{})
	}()

	select {
	case res := <-listed:
		assert.False(t, res.IsError, res.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("diary_goals waited for diary_submit to finish classifying")
	}

	unblock()
	res := <-submitted
	assert.False(t, res.IsError, res.Text)
	entries := decode[[]entryView](t, callTool(t, srv, "diary_entries", map[string]any{}))
	assert.Len(t, entries, 1)
}
