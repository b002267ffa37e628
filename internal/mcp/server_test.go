package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cove/internal/logging"
	"cove/internal/service"
	"cove/internal/storage"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "cove.db"))
	require.NoError(t, err)
	now := func() time.Time { return testNow }
	svc := service.New(db, service.Options{Logger: logging.Discard().Logger, Now: now})
	t.Cleanup(func() {
		svc.Close()
		_ = db.Close()
	})
	return NewServer(svc, now)
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s not registered", name)
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	return result
}

func decode(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, result.IsError, "unexpected tool error: %+v", result.Content)
	text := result.Content[0].(mcp.TextContent).Text
	require.NoError(t, json.Unmarshal([]byte(text), v))
}

func addTask(t *testing.T, s *server.MCPServer, title string) string {
	t.Helper()
	var task taskView
	decode(t, call(t, s, "add_task", map[string]interface{}{
		"title":             title,
		"estimated_minutes": float64(25),
		"interest":          "low",
		"energy":            "high",
	}), &task)
	return task.ID
}

func TestToolsAreRegistered(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"today", "add_task", "commit_task", "complete_task", "snooze_task", "status", "insights", "suggestions", "meltdown"} {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestPlanAndCompleteDay(t *testing.T) {
	s := newTestServer(t)

	id := addTask(t, s, "File taxes")

	var c contractView
	decode(t, call(t, s, "commit_task", map[string]interface{}{"id": id, "anchor": true}), &c)
	require.Len(t, c.Anchors, 1)
	assert.Equal(t, "active", c.Status)
	assert.Equal(t, 25, c.TotalEstimatedMinutes)

	var done completeView
	decode(t, call(t, s, "complete_task", map[string]interface{}{"id": id, "user_energy": "high"}), &done)
	assert.True(t, done.ContractCompleted)
	// low interest, high energy: 20 + 15, plus 10 for the first task
	assert.Equal(t, 45, done.XPAwarded)
	require.NotNil(t, done.Stability)
	assert.InDelta(t, 1.0, *done.Stability, 1e-9)

	var st statusView
	decode(t, call(t, s, "status", nil), &st)
	assert.Equal(t, 45, st.TotalXP)
	assert.Equal(t, 1, st.CurrentStreak)
	require.Len(t, st.Achievements, 1)
	assert.Equal(t, "firstTask", st.Achievements[0].Kind)
	require.NotNil(t, st.Today)
	assert.Equal(t, "completed", st.Today.Status)
}

func TestCommitOverCapacityIsToolError(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 2; i++ {
		id := addTask(t, s, "side")
		result := call(t, s, "commit_task", map[string]interface{}{"id": id})
		require.False(t, result.IsError)
	}
	id := addTask(t, s, "third side")
	result := call(t, s, "commit_task", map[string]interface{}{"id": id})
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(mcp.TextContent).Text, "2 side quests")
}

func TestMeltdownTool(t *testing.T) {
	s := newTestServer(t)

	var started map[string]any
	decode(t, call(t, s, "meltdown", map[string]interface{}{"action": "start"}), &started)
	assert.InDelta(t, 0.4, started["stability"], 1e-9)
	assert.Len(t, started["goblin_tasks"], 8)

	var goblin outcomeView
	decode(t, call(t, s, "meltdown", map[string]interface{}{"action": "goblin"}), &goblin)
	assert.Equal(t, 5, goblin.XPEarned)

	var ended struct {
		Goblins  int  `json:"goblins"`
		Survived bool `json:"survived"`
	}
	decode(t, call(t, s, "meltdown", map[string]interface{}{"action": "end"}), &ended)
	assert.Equal(t, 1, ended.Goblins)
	assert.True(t, ended.Survived)

	assert.True(t, call(t, s, "meltdown", map[string]interface{}{"action": "end"}).IsError)
	assert.True(t, call(t, s, "meltdown", map[string]interface{}{"action": "panic"}).IsError)
}

func TestSnoozeAndInsights(t *testing.T) {
	s := newTestServer(t)
	id := addTask(t, s, "Call the bank")

	var task taskView
	decode(t, call(t, s, "snooze_task", map[string]interface{}{"id": id}), &task)
	assert.Equal(t, "snoozed", task.Status)
	assert.Equal(t, 1, task.SnoozeCount)

	var in insightsView
	decode(t, call(t, s, "insights", nil), &in)
	assert.Equal(t, 1, in.Observations)
	assert.Equal(t, 1.5, in.CurrentMultiplier)
	assert.Empty(t, in.PeakHours)

	var sugg struct {
		Hour        int              `json:"hour"`
		Suggestions []suggestionView `json:"suggestions"`
	}
	decode(t, call(t, s, "suggestions", nil), &sugg)
	assert.Equal(t, 10, sugg.Hour)
	assert.Empty(t, sugg.Suggestions)

	assert.True(t, call(t, s, "suggestions", map[string]interface{}{"hour": float64(24)}).IsError)
}

func TestUnknownTaskIsToolError(t *testing.T) {
	s := newTestServer(t)
	result := call(t, s, "complete_task", map[string]interface{}{"id": "nope"})
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(mcp.TextContent).Text, "task nope not found")
}
