package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stolenpainting/cmd/game/ui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the game in the terminal (default)",
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.HasAPIKey() {
		fmt.Fprintln(cmd.ErrOrStderr(), "OPENAI_API_KEY is not set: the suspects will not be able to answer.")
	}

	model := ui.NewModel(a.engine, a.debug)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
