package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mamed-gasimov/event-slideshow/internal/app"
	"github.com/mamed-gasimov/event-slideshow/internal/config"
	"github.com/mamed-gasimov/event-slideshow/internal/logging"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/reclaim"
	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

var (
	cfg    *config.Config
	logger zerolog.Logger

	// newStore builds the media store; replaced in tests.
	newStore = app.NewStore
	// logOutput keeps logs off stdout, which carries command output.
	logOutput io.Writer = os.Stderr
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "slideshowctl",
	Short: "Maintenance commands for the event slideshow",
	Long: `slideshowctl inspects and maintains the media collection behind the
event slideshow server. It reads the same environment (and .env file)
as the server.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(reclaimCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(qrCmd)
}

func initializeApp(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded
	logger = logging.New(logOutput, cfg.LogLevel, cfg.LogFormat)
	return nil
}

func openStore(ctx context.Context) (storage.Store, error) {
	return newStore(ctx, cfg)
}

func openPolicy(ctx context.Context) (*reclaim.Policy, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewPolicy(store, cfg, logger, nil), nil
}
