// ABOUTME: MCP server subcommand
// ABOUTME: Serves every leadgen tool, resource and prompt over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/leadgen/handlers"
)

// MCPCommand starts the MCP server on stdio. AI tools are only registered when a
// Gemini key is configured. Reminders are read-only here: this process never polls.
func MCPCommand(app *App, version string) error {
	ctx := context.Background()

	deps := handlers.Deps{
		Contacts:  app.Contacts,
		Campaigns: app.Campaigns,
		Deals:     app.Deals,
		Events:    app.Events,
		Logger:    app.Logger,
	}
	if assistant, err := app.Assistant(ctx); err == nil {
		deps.Assistant = assistant
	} else {
		app.Logger.Info("AI tools disabled", zap.Error(err))
	}

	app.Logger.Info("starting MCP server", zap.String("version", version))
	server := handlers.NewServer(deps, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
