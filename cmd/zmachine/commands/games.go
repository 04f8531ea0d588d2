package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zmachine-ai/zmachine-web/internal/game"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List configured games",
	RunE:  runGames,
}

func runGames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	for _, def := range game.NewRegistry(cfg.Games()).List() {
		fmt.Printf("%-12s %-12s %s\n", def.ID, def.Name, def.Image)
	}
	return nil
}
