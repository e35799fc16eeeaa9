package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rentrisk/internal/filter"
	"github.com/sells-group/rentrisk/internal/graph"
	"github.com/sells-group/rentrisk/internal/page"
	"github.com/sells-group/rentrisk/internal/region"
)

// renderable names accepted by --dataset beyond the graph datasets.
const (
	renderChoropleth = "choropleth"
	renderControls   = "controls"
	renderAll        = "all"
)

var renderCmd = &cobra.Command{
	Use:   "render <region>",
	Short: "Print one derived dataset for a region as JSON",
	Long:  "Loads a region, applies the given filters to a fresh page, and writes the requested dataset (histogram, region_averages, points, choropleth, controls, or all) to stdout.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}

		env, err := loadCatalog(cmd.Context(), cfg, args[:1])
		if err != nil {
			return err
		}
		defer env.Close()

		r, ok := env.Catalog.Get(args[0])
		if !ok {
			return eris.Errorf("render: unknown region %q", args[0])
		}

		change := renderChange(cmd)
		dataset, _ := cmd.Flags().GetString("dataset")
		return renderRegion(os.Stdout, r, change, dataset)
	},
}

func renderChange(cmd *cobra.Command) filter.Change {
	var c filter.Change
	flags := cmd.Flags()
	if flags.Changed("room-type") {
		v, _ := flags.GetString("room-type")
		c.RoomType = &v
	}
	if flags.Changed("price-ceiling") {
		v, _ := flags.GetFloat64("price-ceiling")
		c.PriceCeiling = &v
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		c.CrimeCategory = &v
	}
	return c
}

// renderRegion opens a page on r, applies change, and writes the named
// dataset as indented JSON.
func renderRegion(w io.Writer, r *region.Region, change filter.Change, dataset string) error {
	p, err := page.New("render", r)
	if err != nil {
		return err
	}
	if _, err := p.Apply(change); err != nil {
		return eris.Wrap(err, "render: apply filters")
	}

	var out any
	view := p.View()
	switch dataset {
	case string(graph.Histogram):
		out = view.Datasets.Histogram
	case string(graph.RegionAverages):
		out = view.Datasets.RegionAverages
	case string(graph.Points):
		out = view.Datasets.Points
	case renderChoropleth:
		out = p.Choropleth()
	case renderControls:
		out = r.Controls
	case renderAll:
		out = view
	default:
		return eris.Errorf("render: unknown dataset %q", dataset)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return eris.Wrap(err, "render: encode")
	}
	return nil
}

func init() {
	renderCmd.Flags().String("dataset", renderAll, "dataset to print: histogram, region_averages, points, choropleth, controls, all")
	renderCmd.Flags().String("room-type", "", "room type filter (default: first room type)")
	renderCmd.Flags().Float64("price-ceiling", 0, "price ceiling (default: region default)")
	renderCmd.Flags().String("category", "", "crime category filter (default: all)")
	rootCmd.AddCommand(renderCmd)
}
