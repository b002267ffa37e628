// Package mcp exposes the cove service as MCP tools so an assistant can plan and
// close out the day alongside the user.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cove/internal/engine"
	"cove/internal/service"
)

const Version = "0.1.0"

// NewServer registers every tool against svc. now supplies the current hour for suggestions.
func NewServer(svc *service.Service, now func() time.Time) *server.MCPServer {
	if now == nil {
		now = time.Now
	}
	s := server.NewMCPServer("Cove", Version)

	// Contract
	s.AddTool(mcp.NewTool("today",
		mcp.WithDescription("Get today's contract with its anchor tasks and side quests, creating an empty one if needed."),
	), todayHandler(svc))

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a directive task to the backlog."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Optional details")),
		mcp.WithNumber("estimated_minutes", mcp.Description("Estimate in minutes (5-480)")),
		mcp.WithString("interest", mcp.Description("Interest level (high|medium|low, defaults to medium)")),
		mcp.WithString("energy", mcp.Description("Energy required (high|medium|low, defaults to medium)")),
	), addTaskHandler(svc))

	s.AddTool(mcp.NewTool("commit_task",
		mcp.WithDescription("Commit a backlog task to today's contract. At most 3 anchors and 2 side quests."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithBoolean("anchor", mcp.Description("Commit as an anchor task instead of a side quest")),
	), commitTaskHandler(svc))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Complete a task, awarding XP and updating streaks, skills and achievements."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("user_energy", mcp.Description("How the user feels right now (high|medium|low)")),
	), completeTaskHandler(svc))

	s.AddTool(mcp.NewTool("snooze_task",
		mcp.WithDescription("Push a task back for later."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), snoozeTaskHandler(svc))

	// Progression and patterns
	s.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Get level, XP, streak, skills and unlocked achievements."),
	), statusHandler(svc))

	s.AddTool(mcp.NewTool("insights",
		mcp.WithDescription("Get peak and low hours, snooze patterns, estimate accuracy and the suggested time buffer."),
	), insightsHandler(svc))

	s.AddTool(mcp.NewTool("suggestions",
		mcp.WithDescription("Get prioritized suggestions for the current hour."),
		mcp.WithNumber("hour", mcp.Description("Hour of day 0-23 (defaults to now)")),
	), suggestionsHandler(svc, now))

	s.AddTool(mcp.NewTool("meltdown",
		mcp.WithDescription("Manage a meltdown: start it, log a goblin self-care task, or end it."),
		mcp.WithString("action", mcp.Description("start|goblin|end"), mcp.Required()),
	), meltdownHandler(svc))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func todayHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, err := svc.Today(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(contractViewOf(c))
	}
}

func addTaskHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := engine.NewTaskInput{
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			Interest:    engine.ParseLevel(mcp.ParseString(request, "interest", "")),
			Energy:      engine.ParseLevel(mcp.ParseString(request, "energy", "")),
		}
		if est := mcp.ParseInt(request, "estimated_minutes", 0); est > 0 {
			est = engine.ClampEstimate(est)
			in.EstimatedMinutes = &est
		}
		t, err := svc.CreateTask(ctx, in)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(taskViewOf(t))
	}
}

func commitTaskHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		c, err := svc.CommitTask(ctx, id, mcp.ParseBoolean(request, "anchor", false))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(contractViewOf(c))
	}
}

func completeTaskHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		var energy *engine.EnergyLevel
		if raw := mcp.ParseString(request, "user_energy", ""); raw != "" {
			e := engine.ParseLevel(raw)
			energy = &e
		}
		res, err := svc.CompleteTask(ctx, id, energy)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(completeViewOf(res))
	}
}

func snoozeTaskHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t, err := svc.SnoozeTask(ctx, mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(taskViewOf(t))
	}
}

func statusHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := svc.Status(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(statusViewOf(snap))
	}
}

func insightsHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, err := svc.Insights(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(insightsViewOf(in))
	}
}

func suggestionsHandler(svc *service.Service, now func() time.Time) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hour := mcp.ParseInt(request, "hour", now().Hour())
		if hour < 0 || hour > 23 {
			return mcp.NewToolResultError(fmt.Sprintf("hour must be between 0 and 23, got %d", hour)), nil
		}
		list, err := svc.Suggestions(ctx, hour)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out := make([]suggestionView, 0, len(list))
		for _, s := range list {
			out = append(out, suggestionView{Type: string(s.Type), Message: s.Message, Action: s.ActionLabel, Priority: s.Priority})
		}
		return jsonResult(map[string]any{"hour": hour, "suggestions": out})
	}
}

func meltdownHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		switch action := mcp.ParseString(request, "action", ""); action {
		case "start":
			c, err := svc.StartMeltdown(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string]any{
				"stability":    c.StabilityScore,
				"goblin_tasks": engine.GoblinTasks,
			})
		case "goblin":
			out, err := svc.CompleteGoblinTask(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(outcomeViewOf(out))
		case "end":
			res, err := svc.EndMeltdown(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string]any{
				"goblins":  res.Goblins,
				"survived": res.Survived,
				"outcome":  outcomeViewOf(res.Outcome),
			})
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (want start|goblin|end)", action)), nil
		}
	}
}
