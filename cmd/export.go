package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/export"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the enriched datasets to XLSX and upload them to S3",
	Long:  "Runs the extract and enrichment without touching the warehouse, writes the calendar, dimension and fact workbooks, and uploads them when export.s3_bucket is set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		opts := export.Options{Dir: cfg.Export.Dir, Bucket: cfg.Export.S3Bucket, Prefix: cfg.Export.S3Prefix}
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			opts.Dir = dir
		}
		if local, _ := cmd.Flags().GetBool("local"); local {
			opts.Bucket = ""
		}

		var uploader export.Uploader
		if opts.Bucket != "" {
			client, err := export.NewS3Client(ctx, cfg.Export.Region, cfg.Export.Profile)
			if err != nil {
				return err
			}
			uploader = client
		}
		ex, err := export.New(opts, uploader)
		if err != nil {
			return err
		}

		facts, err := extractFacts(cmd, fiscal.NewResolver())
		if err != nil {
			return err
		}
		cal, err := calendarRows(cmd)
		if err != nil {
			return err
		}

		results, err := pipeline.Export(ctx, ex, cal, facts)
		if err != nil {
			return err
		}
		zap.L().Info("export complete", zap.Int("datasets", len(results)), zap.String("bucket", opts.Bucket))
		formatExportResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "output directory (default export.dir)")
	exportCmd.Flags().Bool("local", false, "skip the S3 upload")
	exportCmd.Flags().Bool("skip-calendar", false, "do not export the calendar dimension")
	exportCmd.Flags().Bool("reports", false, "print the per-table source report")
	rootCmd.AddCommand(exportCmd)
}
