package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/source"
)

var renameCmd = &cobra.Command{
	Use:   "rename [dir]",
	Short: "Normalise source extract file names",
	Long:  "Renames every .xlsx and .csv file in dir (default source.root) to its canonical lower-case, underscore-separated name.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Source.Root
		if len(args) == 1 {
			dir = args[0]
		}
		if fetcher.IsRemote(dir) {
			return eris.Errorf("rename: %s is not a local directory", dir)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		renames, err := source.RenameDir(dir, dryRun)
		if err != nil {
			return err
		}
		formatRenames(cmd.OutOrStdout(), renames, dryRun)
		return nil
	},
}

func init() {
	renameCmd.Flags().Bool("dry-run", false, "print the renames without applying them")
	rootCmd.AddCommand(renameCmd)
}
