package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"niftiviewer/pkg/config"
	"niftiviewer/pkg/nifti"
	"niftiviewer/pkg/visualization"
)

// infoCmd prints the geometry of a volume without opening the viewer
var infoCmd = &cobra.Command{
	Use:   "info [volume]",
	Short: "Print dimensions, spacing, origin and datatype of a volume",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	
	path := volumePath(args, cfg)
	vol, header, err := nifti.LoadWithHeader(path)
	if err != nil {
		return err
	}
	
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:        %s\n", path)
	fmt.Fprintf(out, "Image size: %d x %d x %d\n", vol.Width, vol.Height, vol.Depth)
	fmt.Fprintf(out, "Datatype:    %s\n", vol.Datatype)
	fmt.Fprintf(out, "Spacing:     %.4g x %.4g x %.4g\n", vol.Spacing[0], vol.Spacing[1], vol.Spacing[2])
	fmt.Fprintf(out, "Origin:      %.4g, %.4g, %.4g\n", vol.Origin[0], vol.Origin[1], vol.Origin[2])
	fmt.Fprintln(out, intensityLine(vol.Data))
	if desc := header.Description(); desc != "" {
		fmt.Fprintf(out, "Description: %s\n", desc)
	}
	return nil
}

// intensityLine reports the range of the finite intensities and how many voxels are not finite
func intensityLine(data []float64) string {
	finite := visualization.FiniteValues(data)
	if len(finite) == 0 {
		return fmt.Sprintf("Intensity:   no finite values (%d voxels)", len(data))
	}
	
	line := fmt.Sprintf("Intensity:   %.6g .. %.6g", floats.Min(finite), floats.Max(finite))
	if skipped := len(data) - len(finite); skipped > 0 {
		line += fmt.Sprintf(" (%d non-finite voxels)", skipped)
	}
	return line
}
