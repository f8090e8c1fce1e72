// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it loads the scenario, builds the session
// manager and the command journal, and injects them into the tools,
// prompts and resources. No simulation logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/discovery-sim/internal/config"
	"github.com/HendryAvila/discovery-sim/internal/interview"
	"github.com/HendryAvila/discovery-sim/internal/journal"
	"github.com/HendryAvila/discovery-sim/internal/logging"
	"github.com/HendryAvila/discovery-sim/internal/prompts"
	"github.com/HendryAvila/discovery-sim/internal/resources"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/sim"
	"github.com/HendryAvila/discovery-sim/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the journal and must be called on
// shutdown (typically via defer). It is always non-nil and safe to call
// even if the journal failed to open.
func New(cfg config.Config, log *logging.Logger) (*server.MCPServer, func(), error) {
	if log == nil {
		log = logging.Nop()
	}

	// --- Create shared dependencies ---

	scn, err := loadScenario(cfg)
	if err != nil {
		return nil, noop, err
	}

	mgr := sim.NewManager(scn, sessionOptions(cfg), log)
	mgr.SetBaseSeed(cfg.Seed)

	// --- Command journal ---
	//
	// The journal is an independent subsystem: if it fails to open,
	// sessions still run and only sim_history is unavailable.

	cleanup := noop
	if cfg.Journal.Enabled {
		j, err := journal.New(journal.Config{Dir: cfg.Journal.Dir})
		if err != nil {
			log.Warn("command journal disabled", "err", err)
		} else {
			mgr.SetJournal(j)
			cleanup = func() {
				if err := j.Close(); err != nil {
					log.Warn("journal close", "err", err)
				}
			}
			log.Info("command journal ready", "in_memory", j.InMemory(), "dir", cfg.Journal.Dir)
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"discovery-sim",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register session tools ---

	startTool := tools.NewStartTool(mgr)
	s.AddTool(startTool.Definition(), startTool.Handle)

	bookTool := tools.NewBookTool(mgr)
	s.AddTool(bookTool.Definition(), bookTool.Handle)

	askTool := tools.NewAskTool(mgr)
	s.AddTool(askTool.Definition(), askTool.Handle)

	endTool := tools.NewEndInterviewTool(mgr)
	s.AddTool(endTool.Definition(), endTool.Handle)

	openFlashTool := tools.NewOpenFlashTool(mgr)
	s.AddTool(openFlashTool.Definition(), openFlashTool.Handle)

	followUpTool := tools.NewFlashFollowUpTool(mgr)
	s.AddTool(followUpTool.Definition(), followUpTool.Handle)

	// --- Register evidence and grading tools ---

	synthesisTool := tools.NewSynthesisTool(mgr)
	s.AddTool(synthesisTool.Definition(), synthesisTool.Handle)

	scoreTool := tools.NewScoreTool(mgr)
	s.AddTool(scoreTool.Definition(), scoreTool.Handle)

	statusTool := tools.NewStatusTool(mgr)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	exportTool := tools.NewExportTool(mgr)
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	historyTool := tools.NewHistoryTool(mgr)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(scn)
	s.AddResource(resourceHandler.BriefResource(), resourceHandler.HandleBrief)
	s.AddResource(resourceHandler.ChannelsResource(), resourceHandler.HandleChannels)

	source := cfg.Source
	if source == "" {
		source = "defaults"
	}
	log.Info("server ready",
		"version", Version,
		"config", source,
		"market", scn.MarketID,
		"personas", len(scn.Personas),
		"budget", scn.Budget,
	)
	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the journal
// is disabled or failed to open.
func noop() {}

// loadScenario reads the configured scenario, or the embedded one, and
// applies the budget override.
func loadScenario(cfg config.Config) (*scenario.Scenario, error) {
	var (
		scn *scenario.Scenario
		err error
	)
	if cfg.Scenario == "" {
		scn, err = scenario.Default(cfg.CatalogSeed)
	} else {
		scn, err = scenario.LoadFile(cfg.Scenario, cfg.CatalogSeed)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	return scn.WithBudget(cfg.Budget), nil
}

func sessionOptions(cfg config.Config) sim.Options {
	return sim.Options{
		Interview: interview.Options{
			GenericAnswerProbability: cfg.GenericAnswerProbability,
			MaxQuestions:             cfg.MaxQuestions,
		},
		MaxBooked:     cfg.MaxBooked,
		FlashLimit:    cfg.FlashLimit,
		FollowUpLimit: cfg.FollowUpLimit,
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to run a discovery session.
func serverInstructions() string {
	return `You have access to discovery-sim, a problem-discovery training simulator.

## WHAT IT DOES

The learner plays a founder researching a market. They spend a token budget
on recruitment channels, interview the synthetic personas who get booked,
skim flash snippets of field evidence, synthesize, and finally commit to a
problem statement and a next test. The simulator scores how close they got
to the market's real top pain and how well they interviewed.

## HOW TO RUN A SESSION

1. sim_start opens a session and returns its session_id. Every other tool needs it.
2. sim_book spends tokens, e.g. allocation="email_list=4, cold_dm=3, forums=3".
3. sim_ask sends ONE learner question to ONE booked persona.
4. sim_open_flash and sim_flash_followup add quick evidence.
5. sim_synthesis ranks the pains heard so far and raises channel alerts.
6. sim_score grades the session; pass problem_statement and test_plan.
7. sim_status, sim_export and sim_history inspect a session at any point.

## RULES FOR THE AI

- The learner writes the questions. Relay them verbatim to sim_ask.
  Never write, rephrase or improve a question on the learner's behalf.
- Never reveal a persona's hidden pains, tell threshold or spend ceiling,
  and never reveal the market's real top pain before sim_score has run.
- Personas open up only as trust grows. Open questions about past behavior
  build trust; closed, leading or pitching questions erode it.
- Report tool errors to the learner plainly. They are rule violations
  (unknown persona, repeated question, limit reached), not server faults.

## RESOURCES

- discovery://scenario/brief: market brief, budget, segments, topics.
- discovery://scenario/channels: channel yields and segment biases.`
}
