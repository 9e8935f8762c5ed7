// Copyright (C) 2022, VigilantDoomer
//
// This file is part of DengMap program.
//
// DengMap is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// DengMap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with DengMap.  If not, see <https://www.gnu.org/licenses/>.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dengmap",
	Short: "dengmap builds BSP trees and blockmaps for Doom format maps",
	Long: "dengmap loads Doom and Hexen format maps from a WAD, builds their\n" +
		"half-edge BSP tree and blockmaps, and answers queries against them.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if config.SplitCostFactor <= 0 {
			return fmt.Errorf("split cost factor must be positive, got %d",
				config.SplitCostFactor)
		}
		if config.BlockmapCellSize < 1 ||
			config.BlockmapCellSize != math.Trunc(config.BlockmapCellSize) {
			return fmt.Errorf("blockmap cell size must be a whole number of map units, got %v",
				config.BlockmapCellSize)
		}
		if cmd.Name() != "version" {
			PrintBanner()
		}
		config.Profile = config.ProfilePath != ""
		startProfile()
		return nil
	},
}

var buildCmd = &cobra.Command{
	Use:   "build wad_file [map_name...]",
	Short: "Build the given maps, or every map of the WAD",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ProcessWad(args[0], args[1:])
	},
}

var renderFormatFlag string

var renderCmd = &cobra.Command{
	Use:   "render wad_file map_name",
	Short: "Build a map and render its blockmap to an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := -1
		if renderFormatFlag != "" {
			f, err := RenderFormatFromString(renderFormatFlag)
			if err != nil {
				return err
			}
			format = f
		}
		output := config.RenderOutput
		if output == "" {
			if format < 0 {
				format = RENDER_PNG
			}
			output = strings.ToLower(args[1]) + RenderFormatExt(format)
		}
		if format < 0 {
			f, err := RenderFormatFromString(filepath.Ext(output))
			if err != nil {
				return err
			}
			format = f
		}
		config.RenderFormat = format

		gmap, err := LoadAndBuild(args[0], args[1])
		if err != nil {
			return err
		}
		img, err := RenderMap(gmap, config.RenderBlockmap, config.RenderScale,
			config.RenderSegs)
		if err != nil {
			return err
		}
		if err := WriteImage(output, img, config.RenderFormat); err != nil {
			return err
		}
		Log.Printf("Wrote %s (%dx%d)\n", output, img.Bounds().Dx(), img.Bounds().Dy())
		return nil
	},
}

var sightCmd = &cobra.Command{
	Use:   "sight wad_file map_name x1 y1 z1 x2 y2 z2",
	Short: "Check line of sight between two points of a map",
	Args:  cobra.ExactArgs(8),
	RunE: func(cmd *cobra.Command, args []string) error {
		var coords [6]float64
		for i := range coords {
			v, err := strconv.ParseFloat(args[2+i], 64)
			if err != nil {
				return fmt.Errorf("bad coordinate %q: %w", args[2+i], err)
			}
			coords[i] = v
		}
		gmap, err := LoadAndBuild(args[0], args[1])
		if err != nil {
			return err
		}
		from := [3]float64{coords[0], coords[1], coords[2]}
		to := [3]float64{coords[3], coords[4], coords[5]}
		// eye to eye, the way monsters look at each other
		seen := gmap.CheckLineSight(from, to, 0, 0, config.SightFlags)
		if seen {
			Log.Printf("Visible\n")
		} else {
			Log.Printf("Blocked\n")
		}
		for i, p := range [2][3]float64{from, to} {
			if ss := gmap.PointInSubsector(p[0], p[1]); ss != nil {
				Log.Verbose(1, "Point %d is in %s of %s\n", i+1, describeObject(ss),
					describeObject(ss.Sector()))
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DengMap ver %s\n", VERSION)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&config.VerbosityLevel, "verbose", "v",
		"Add verbosity to text output. Use multiple times for increased verbosity")
	flags.IntVar(&config.SplitCostFactor, "factor", config.SplitCostFactor,
		"Seg split cost factor for partition selection")
	flags.BoolVar(&config.DumpLeafs, "dump-leafs", config.DumpLeafs,
		"Print the half-edges of every leaf")
	flags.StringVar(&config.ProfilePath, "cpuprofile", "",
		"Write CPU profile to file")
	flags.Float64Var(&config.BlockmapCellSize, "cell", config.BlockmapCellSize,
		"Blockmap cell size in map units")

	renderCmd.Flags().StringVarP(&config.RenderOutput, "output", "o", "",
		"Output image (default: map name with the format's extension)")
	renderCmd.Flags().StringVarP(&renderFormatFlag, "format", "f", "",
		"Image format: png, webp or tga (default: from the output extension)")
	renderCmd.Flags().Float64VarP(&config.RenderScale, "scale", "s", config.RenderScale,
		"Map units per pixel")
	renderCmd.Flags().BoolVar(&config.RenderSegs, "segs", config.RenderSegs,
		"Draw BSP segs over the linedefs")
	renderCmd.Flags().StringVarP(&config.RenderBlockmap, "blockmap", "b", config.RenderBlockmap,
		"Blockmap to shade: linedef, mobj or subsector")

	sightCmd.Flags().IntVar(&config.SightFlags, "flags", config.SightFlags,
		"Line of sight flags: 1 pass left, 2 over, 4 under, 8 over sky, 16 under sky, 32 middle")

	rootCmd.AddCommand(buildCmd, renderCmd, sightCmd, versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		stopProfile()
		Log.Error("%s\n", err)
		os.Exit(1)
	}
}
