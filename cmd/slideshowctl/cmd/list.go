package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

var (
	listLimit int
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets in the collection, newest first",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 30, "Maximum number of assets to list")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print assets as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	assets, err := store.Search(ctx, storage.Query{
		Collection: cfg.Collection,
		Order:      storage.Descending,
		Limit:      listLimit,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrQueryFailed, err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assets)
	}

	now := time.Now()
	for _, a := range assets {
		age := now.Sub(a.CreatedAt).Truncate(time.Second)
		expired := ""
		if age > cfg.Reclaim.Retention {
			expired = "\texpired"
		}
		fmt.Fprintf(out, "%s\t%s\t%s%s\n", a.ID, age, a.URL, expired)
	}
	return nil
}
