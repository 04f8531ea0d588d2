package commands

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/store"
)

var purgeMaxAge time.Duration

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired session save files",
	Long: `Run one expiry sweep over every game's save directory and exit.

Only files matching the session naming convention are considered; anything
else in the directories is left alone.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeMaxAge, "max-age", 24*time.Hour, "Delete sessions idle longer than this")
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	games := game.NewRegistry(cfg.Games())
	st := store.New(afero.NewOsFs(), cfg.SaveRoot, games)

	removed, err := st.PurgeExpired(purgeMaxAge)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d expired session file(s)\n", removed)
	return nil
}
