package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamed-gasimov/event-slideshow/internal/qr"
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Print a QR code pointing guests at the upload page",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := cfg.UploadURL(qr.LocalIP())
		fmt.Fprintln(cmd.OutOrStdout(), url)
		qr.Print(cmd.OutOrStdout(), url)
		return nil
	},
}
