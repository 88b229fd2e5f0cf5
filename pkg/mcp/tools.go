package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the grow box health: open issues, zigbee data availability and sensor freshness"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_latest_sample",
			mcp.WithDescription("Get the newest sensor sample (temperature, humidity, CO2, TVOC)"),
		),
		s.handleGetLatestSample,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_history",
			mcp.WithDescription("Get sensor samples over a time span, one per 10 minutes, oldest first"),
			mcp.WithString("span",
				mcp.Description("History span: 1h, 4h, 12h or 24h (default 24h)"),
				mcp.Enum("1h", "4h", "12h", "24h"),
			),
		),
		s.handleGetHistory,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List the zigbee devices with their last reported state"),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_settings",
			mcp.WithDescription("Get the settings document: light schedule, setpoints and fridge mode"),
		),
		s.handleGetSettings,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_light_times",
			mcp.WithDescription("Set the daily light schedule in local time"),
			mcp.WithString("on_time",
				mcp.Required(),
				mcp.Description("Time the light turns on (HH:MM)"),
			),
			mcp.WithString("off_time",
				mcp.Required(),
				mcp.Description("Time the light turns off (HH:MM)"),
			),
		),
		s.handleSetLightTimes,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_health_issues",
			mcp.WithDescription("List health issues, newest first"),
			mcp.WithBoolean("open_only",
				mcp.Description("Only list issues that are still open (default true)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of issues when listing resolved ones too (default 20)"),
			),
		),
		s.handleListHealthIssues,
	)
}
