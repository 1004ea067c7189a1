// ABOUTME: MCP server assembly: every tool, resource and prompt registered on one server
// ABOUTME: The CLI runs it over stdio; tests connect through in-memory transports
package handlers

import (
	"github.com/harperreed/leadgen/ai"
	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/dedup"
	"github.com/harperreed/leadgen/pipeline"
	"github.com/harperreed/leadgen/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Deps are the services behind the tools. Assistant and Reminders may be nil.
type Deps struct {
	Contacts  *db.ContactRepository
	Campaigns *db.CampaignRepository
	Deals     *db.DealRepository
	Events    *db.EventRepository
	Assistant *ai.Assistant
	Reminders ReminderFeed
	Logger    *zap.Logger
}

func NewServer(deps Deps, version string) *mcp.Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	board := pipeline.NewBoard(deps.Deals, logger)
	contactHandlers := NewContactHandlers(deps.Contacts)
	duplicateHandlers := NewDuplicateHandlers(deps.Contacts, dedup.NewMerger(deps.Contacts, logger))
	campaignHandlers := NewCampaignHandlers(deps.Campaigns, campaign.NewTracker(deps.Campaigns, logger))
	dealHandlers := NewDealHandlers(deps.Deals, board)
	eventHandlers := NewEventHandlers(deps.Events, deps.Reminders)
	vizHandlers := NewVizHandlers(
		&viz.Collector{Contacts: deps.Contacts, Campaigns: deps.Campaigns, Events: deps.Events, Board: board},
		viz.NewGraphGenerator(board, nil),
	)
	resourceHandlers := NewResourceHandlers(deps.Contacts, deps.Campaigns, board)
	promptHandlers := NewPromptHandlers(deps.Contacts, deps.Campaigns)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "leadgen",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact (prospect or member)",
	}, contactHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by text, category, status, or tag",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update fields of an existing contact",
	}, contactHandlers.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact; linked deals and events are kept and unlinked",
	}, contactHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: "Group contacts sharing the same email address, largest groups first",
	}, duplicateHandlers.FindDuplicates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge_contacts",
		Description: "Merge duplicate contacts into a primary record and delete the others",
	}, duplicateHandlers.MergeContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "similar_contacts",
		Description: "Suggest contact pairs with near-identical names but different emails",
	}, duplicateHandlers.SimilarContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_campaign",
		Description: "Create a draft email campaign for a fixed list of contacts",
	}, campaignHandlers.CreateCampaign)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "qualify_contact",
		Description: "Record a targeted contact's campaign outcome, replacing any previous one",
	}, campaignHandlers.QualifyContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "campaign_stats",
		Description: "Aggregate campaign outcomes: registered attendees, meetings, positive, negative, no answer",
	}, campaignHandlers.CampaignStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a deal in the sales pipeline",
	}, dealHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal",
		Description: "Move a deal to another pipeline stage",
	}, dealHandlers.MoveDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pipeline",
		Description: "Show deals grouped by stage with totals",
	}, dealHandlers.GetPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_event",
		Description: "Schedule a calendar event with a reminder",
	}, eventHandlers.AddEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upcoming_events",
		Description: "List incomplete events in the coming days",
	}, eventHandlers.UpcomingEvents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_event",
		Description: "Mark an event as done so it no longer triggers reminders",
	}, eventHandlers.CompleteEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recent_reminders",
		Description: "List reminders emitted by the running reminder poller",
	}, eventHandlers.RecentReminders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_graph",
		Description: "Generate a GraphViz DOT graph of the pipeline",
	}, vizHandlers.PipelineGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Text dashboard of contacts, pipeline and campaign outcomes",
	}, vizHandlers.Dashboard)

	if deps.Assistant != nil {
		aiHandlers := NewAIHandlers(deps.Contacts, deps.Assistant)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "score_contact",
			Description: "Score a lead from 0 to 100 with the AI model and save the score",
		}, aiHandlers.ScoreContact)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "extract_contact",
			Description: "Extract contact details from business card or signature text",
		}, aiHandlers.ExtractContact)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "draft_template",
			Description: "Draft a French campaign email for a goal",
		}, aiHandlers.DraftTemplate)
	}

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "contact",
		URITemplate: resourceScheme + "contacts/{id}",
		Description: "One contact by ID",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
