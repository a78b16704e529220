package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reclaimDryRun bool

var reclaimCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Run one reclamation pass now",
	Long: `Delete every asset in the collection that is older than the retention
window (RETENTION), looking at up to RECLAIM_PAGE_SIZE assets.

Examples:
  # Delete expired photos
  slideshowctl reclaim

  # Only show what would be deleted
  slideshowctl reclaim --dry-run`,
	RunE: runReclaim,
}

func init() {
	reclaimCmd.Flags().BoolVarP(&reclaimDryRun, "dry-run", "n", false, "List expired assets without deleting them")
}

func runReclaim(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	policy, err := openPolicy(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if reclaimDryRun {
		expired, scanned, err := policy.Candidates(ctx)
		if err != nil {
			return err
		}
		for _, a := range expired {
			fmt.Fprintf(out, "%s\t%s\t%s\n", a.ID, a.CreatedAt.Format(time.RFC3339), a.URL)
		}
		fmt.Fprintf(out, "scanned %d, would delete %d\n", scanned, len(expired))
		return nil
	}

	res, err := policy.Reclaim(ctx)
	if err != nil {
		return err
	}
	for _, id := range res.Deleted {
		fmt.Fprintf(out, "deleted\t%s\n", id)
	}
	for _, ie := range res.Errors {
		fmt.Fprintf(out, "failed\t%s\t%s\n", ie.ID, ie.Reason())
	}
	fmt.Fprintf(out, "scanned %d, deleted %d, failed %d\n", res.Scanned, len(res.Deleted), len(res.Errors))
	return nil
}
