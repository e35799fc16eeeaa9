package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate [region...]",
	Short: "Load every region once and report data load errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}

		env, err := loadCatalog(cmd.Context(), cfg, regionKeys(cfg, args))
		if err != nil {
			if loader.IsDataLoadError(err) {
				zap.L().Error("data load failed", zap.Error(err))
			}
			return err
		}
		defer env.Close()

		for _, r := range env.Catalog.List() {
			fmt.Fprintf(os.Stdout, "%s: %d listings, %d incidents, %d boundaries\n",
				r.Key, r.Listings.Len(), r.Incidents.Len(), r.Geometry.Len())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
