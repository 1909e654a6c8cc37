// ABOUTME: MCP resource implementations for the training log.
// ABOUTME: Provides pump://today, the current day with every routine and exercise.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pump/internal/models"
)

const todayURI = "pump://today"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today's Training",
		Description: "Routines planned today with their exercises",
		MIMEType:    "application/json",
	}, s.handleTodayResource)
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	day, err := s.loadDay(ctx, models.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to load today: %w", err)
	}

	exercises, done := 0, 0
	for _, r := range day.Routines {
		for _, e := range r.Exercises {
			exercises++
			if e.Sets > 0 && e.SetsCompleted >= e.Sets {
				done++
			}
		}
	}

	result := map[string]interface{}{
		"date":     day.Date,
		"routines": day.Routines,
		"counts": map[string]int{
			"routines":  len(day.Routines),
			"exercises": exercises,
			"completed": done,
		},
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      todayURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
