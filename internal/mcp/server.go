// Package mcp exposes a running game over the Model Context Protocol so an agent can
// play a full round headless. Every tool goes through the game Runner, so tool calls
// and clock ticks are serialized exactly as key presses and ticks are in the TUI.
package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/debug"
	"stolenpainting/internal/game"
)

const (
	ServerName    = "stolen-painting"
	ServerVersion = "1.0.0"
)

type Server struct {
	MCPServer *sdkmcp.Server

	runner *game.Runner
	debug  *debug.Logger
}

func NewServer(runner *game.Runner, debugLogger *debug.Logger) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: ServerName, Version: ServerVersion}, nil),
		runner:    runner,
		debug:     debugLogger,
	}
	s.registerTools()
	return s
}

// Run serves the tools over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_state",
		Description: "Get the current phase, clock, gate progress, clues, suspects and, after a guess, the result.",
	}, s.handleGetState)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_game",
		Description: "Start a new playthrough. Everything is reset and the clock waits for begin_exploration.",
	}, s.handleStartGame)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "begin_exploration",
		Description: "Finish the introduction and start the exploration clock.",
	}, s.handleBeginExploration)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "open_clue",
		Description: "Inspect a clue on the crime scene. Counts as interacting with a clue.",
	}, s.handleOpenClue)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "unlock_clue",
		Description: "Try a password on a locked clue.",
	}, s.handleUnlockClue)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "open_suspect",
		Description: "Walk over to a suspect. Blocks until they greet you.",
	}, s.handleOpenSuspect)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "talk",
		Description: "Say something to a suspect. Blocks until they answer.",
	}, s.handleTalk)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "enter_guessing",
		Description: "Move on to the accusation. Requires a clue interaction and a conversation with every suspect.",
	}, s.handleEnterGuessing)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "select_suspect",
		Description: "Choose who to accuse.",
	}, s.handleSelectSuspect)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "write_explanation",
		Description: "Write the reasoning behind the accusation, replacing any previous text.",
	}, s.handleWriteExplanation)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "submit_guess",
		Description: "Submit the accusation. Requires a selected suspect and an explanation.",
	}, s.handleSubmitGuess)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "restart",
		Description: "Leave the results screen for a new playthrough.",
	}, s.handleRestart)
}

// --- Tool input/output types ---

type emptyInput struct{}

type clueInput struct {
	ClueID string `json:"clue_id" jsonschema:"clue identifier from get_state"`
}

type unlockInput struct {
	ClueID   string `json:"clue_id" jsonschema:"clue identifier from get_state"`
	Password string `json:"password" jsonschema:"password to try"`
}

type suspectInput struct {
	SuspectID string `json:"suspect_id" jsonschema:"suspect identifier from get_state"`
}

type talkInput struct {
	SuspectID string `json:"suspect_id" jsonschema:"suspect identifier from get_state"`
	Message   string `json:"message" jsonschema:"what to say"`
}

type explanationInput struct {
	Text string `json:"text" jsonschema:"the reasoning behind the accusation"`
}

type clueOutput struct {
	Clue  game.ClueView `json:"clue"`
	State game.State    `json:"state"`
}

type lineOutput struct {
	Speaker string     `json:"speaker"`
	Reply   string     `json:"reply"`
	State   game.State `json:"state"`
}

// --- Handlers ---

func (s *Server) handleGetState(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, game.State, error) {
	state, err := s.runner.State(ctx)
	return nil, state, err
}

func (s *Server) handleStartGame(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "start_game", func(e *game.Engine) error {
		e.Start()
		return nil
	})
}

func (s *Server) handleBeginExploration(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "begin_exploration", (*game.Engine).BeginExploration)
}

func (s *Server) handleOpenClue(ctx context.Context, _ *sdkmcp.CallToolRequest, in clueInput) (*sdkmcp.CallToolResult, clueOutput, error) {
	var out clueOutput
	err := s.runner.Do(ctx, func(e *game.Engine) error {
		view, err := e.OpenClue(in.ClueID)
		if err != nil {
			return err
		}
		out = clueOutput{Clue: view, State: e.State()}
		return nil
	})
	s.debug.Printf("MCP open_clue %s: %v", in.ClueID, err)
	return nil, out, err
}

func (s *Server) handleUnlockClue(ctx context.Context, _ *sdkmcp.CallToolRequest, in unlockInput) (*sdkmcp.CallToolResult, clueOutput, error) {
	var out clueOutput
	err := s.runner.Do(ctx, func(e *game.Engine) error {
		view, err := e.UnlockClue(in.ClueID, in.Password)
		if err != nil {
			return err
		}
		out = clueOutput{Clue: view, State: e.State()}
		return nil
	})
	s.debug.Printf("MCP unlock_clue %s: %v", in.ClueID, err)
	return nil, out, err
}

func (s *Server) handleOpenSuspect(ctx context.Context, _ *sdkmcp.CallToolRequest, in suspectInput) (*sdkmcp.CallToolResult, lineOutput, error) {
	update, err := s.runner.OpenSuspect(ctx, casefile.SuspectID(in.SuspectID))
	if err != nil {
		return nil, lineOutput{}, err
	}
	return s.line(ctx, update.Line.Author, update.Line.Text)
}

func (s *Server) handleTalk(ctx context.Context, _ *sdkmcp.CallToolRequest, in talkInput) (*sdkmcp.CallToolResult, lineOutput, error) {
	update, err := s.runner.Talk(ctx, casefile.SuspectID(in.SuspectID), in.Message)
	s.debug.Printf("MCP talk %s: %v", in.SuspectID, err)
	if err != nil {
		return nil, lineOutput{}, err
	}
	return s.line(ctx, update.Line.Author, update.Line.Text)
}

func (s *Server) handleEnterGuessing(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "enter_guessing", (*game.Engine).EnterGuessing)
}

func (s *Server) handleSelectSuspect(ctx context.Context, _ *sdkmcp.CallToolRequest, in suspectInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "select_suspect", func(e *game.Engine) error {
		return e.SelectSuspect(casefile.SuspectID(in.SuspectID))
	})
}

func (s *Server) handleWriteExplanation(ctx context.Context, _ *sdkmcp.CallToolRequest, in explanationInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "write_explanation", func(e *game.Engine) error {
		return e.WriteExplanation(in.Text)
	})
}

func (s *Server) handleSubmitGuess(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "submit_guess", (*game.Engine).SubmitGuess)
}

func (s *Server) handleRestart(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, game.State, error) {
	return s.mutate(ctx, "restart", (*game.Engine).Restart)
}

// mutate applies fn on the game loop and returns the resulting state.
func (s *Server) mutate(ctx context.Context, tool string, fn func(*game.Engine) error) (*sdkmcp.CallToolResult, game.State, error) {
	var state game.State
	err := s.runner.Do(ctx, func(e *game.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		state = e.State()
		return nil
	})
	s.debug.Printf("MCP %s: %v", tool, err)
	return nil, state, err
}

func (s *Server) line(ctx context.Context, speaker, reply string) (*sdkmcp.CallToolResult, lineOutput, error) {
	state, err := s.runner.State(ctx)
	if err != nil {
		return nil, lineOutput{}, err
	}
	return nil, lineOutput{Speaker: speaker, Reply: reply, State: state}, nil
}
