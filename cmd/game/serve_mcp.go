package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stolenpainting/internal/game"
	"stolenpainting/internal/mcp"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the game as MCP tools over stdio",
	Long: `Starts an MCP server over stdin/stdout so an agent can play a round headless.
The clock runs in real time exactly as in the terminal game; tools such as "talk"
block until the suspect has answered.`,
	Args: cobra.NoArgs,
	RunE: runServeMCP,
}

func runServeMCP(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.engine.Start()
	runner := game.NewRunner(a.engine, time.Second)
	srv := mcp.NewServer(runner, a.debug)

	g, ctx := errgroup.WithContext(cmd.Context())
	ctx, cancel := context.WithCancel(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		// The client hanging up ends the game loop as well.
		defer cancel()
		a.debug.Println("Serving MCP over stdio")
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}
