// The Stolen Painting: a timed detective game in the terminal. Explore the crime scene,
// question three suspects played by a chat model, then name the thief before the
// clock runs out. Built with Bubble Tea.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "game",
	Short: "Solve the case of the stolen painting",
	Long: `Explore Glenn's Art Shop, interview the suspects and accuse the thief before
time runs out. Suspects are played by an OpenAI chat model; set OPENAI_API_KEY
(a .env file in the working directory is read too).

Every completion is written to a local SQLite journal that can be listed with
"review" and scored with "rate".`,
	SilenceUsage: true,
	RunE:         runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd, reviewCmd, rateCmd, serveMCPCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
