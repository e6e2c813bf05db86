package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a stored final PDF",
	Long:  "Download a final PDF previously uploaded to object storage by the generate-final-pdf endpoint. The key is the X-Object-Key response header.",
	RunE:  runDownload,
}

var (
	downloadKey        string
	downloadOutputFile string
)

func init() {
	downloadCmd.Flags().StringVarP(&downloadKey, "key", "k", "", "Object key of the stored PDF")
	downloadCmd.Flags().StringVarP(&downloadOutputFile, "out", "o", "", "Path to output PDF file")

	_ = downloadCmd.MarkFlagRequired("key")
	_ = downloadCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if cfg.Storage.Bucket == "" {
		return errors.New("storage.bucket is not configured")
	}

	pdfs, err := newPDFStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	pdf, err := pdfs.Download(cmd.Context(), downloadKey)
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), downloadOutputFile, pdf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", downloadOutputFile, len(pdf))
	return nil
}
