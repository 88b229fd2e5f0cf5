package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/growbox/pkg/dashboard"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/settings"
)

const defaultIssueLimit = 20

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	zigbee := "disconnected"
	if s.controller.IsConnected() {
		zigbee = "connected"
	}

	issues, err := s.db.HealthIssues().Open(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read health issues: %s", err)), nil
	}

	out := GetHealthOutput{
		Status:     "healthy",
		Zigbee:     zigbee,
		OpenIssues: make([]IssueInfo, 0, len(issues)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for i := range issues {
		out.OpenIssues = append(out.OpenIssues, IssueToInfo(&issues[i]))
		switch {
		case issues[i].Severity == db.SeverityError:
			out.Status = "unhealthy"
		case out.Status == "healthy":
			out.Status = "degraded"
		}
	}

	if m, err := s.db.Measurements().Latest(ctx); err == nil {
		out.LastSampleAt = &m.RecordedAt
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetLatestSample(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.db.Measurements().Latest(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNoMeasurements) {
			return mcp.NewToolResultError("no samples recorded yet"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read latest sample: %s", err)), nil
	}

	out := GetLatestSampleOutput{
		Sample: SampleToInfo(m),
		Age:    time.Since(m.RecordedAt).Round(time.Second).String(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in GetHistoryInput
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}

	span := dashboard.Span24h
	if in.Span != "" {
		var err error
		if span, err = dashboard.ParseSpan(in.Span); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	samples, err := s.db.Measurements().History(ctx, time.Now().Add(-span.Duration()))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %s", err)), nil
	}

	out := GetHistoryOutput{
		Span:    string(span),
		Samples: make([]SampleInfo, 0, len(samples)),
	}
	for i := range samples {
		out.Samples = append(out.Samples, SampleToInfo(&samples[i]))
	}
	out.Count = len(out.Samples)
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for i := range devices {
		info := DeviceToInfo(&devices[i])
		if state, err := s.controller.GetDeviceState(ctx, devices[i].ID); err == nil {
			info.State = state
		}
		infos = append(infos, info)
	}

	out := ListDevicesOutput{
		Devices: infos,
		Count:   len(infos),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, _, err := s.activeSettings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatJSON(doc)), nil
}

func (s *Server) handleSetLightTimes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	onTime, err := requiredString(request, "on_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offTime, err := requiredString(request, "off_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, v := range []string{onTime, offTime} {
		if _, err := settings.ParseClock(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	doc, profileID, err := s.activeSettings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc.Light = settings.LightSchedule{On: onTime, Off: offTime}

	raw, err := json.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode settings: %s", err)), nil
	}
	if _, err := settings.Decode(s.validator, raw); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.db.Settings().Put(ctx, profileID, doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store settings: %s", err)), nil
	}

	out := SetLightTimesOutput{
		Success: true,
		Message: fmt.Sprintf("Light on at %s, off at %s", onTime, offTime),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListHealthIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in ListHealthIssuesInput
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	openOnly := in.OpenOnly == nil || *in.OpenOnly
	limit := in.Limit
	if limit <= 0 {
		limit = defaultIssueLimit
	}

	var (
		issues []db.HealthIssue
		err    error
	)
	if openOnly {
		issues, err = s.db.HealthIssues().Open(ctx)
	} else {
		issues, err = s.db.HealthIssues().Recent(ctx, limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read health issues: %s", err)), nil
	}

	out := ListHealthIssuesOutput{Issues: make([]IssueInfo, 0, len(issues))}
	for i := range issues {
		out.Issues = append(out.Issues, IssueToInfo(&issues[i]))
	}
	out.Count = len(out.Issues)
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

// activeSettings returns the active profile's settings, or the defaults when
// none were stored yet.
func (s *Server) activeSettings(ctx context.Context) (settings.Settings, int64, error) {
	profile, err := s.db.Profiles().GetActive(ctx)
	if err != nil {
		return settings.Settings{}, 0, fmt.Errorf("failed to load active profile: %w", err)
	}
	doc, err := s.db.Settings().Get(ctx, profile.ID)
	if errors.Is(err, db.ErrSettingsNotFound) {
		return settings.Defaults(), profile.ID, nil
	}
	if err != nil {
		return settings.Settings{}, 0, fmt.Errorf("failed to load settings: %w", err)
	}
	return doc, profile.ID, nil
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
