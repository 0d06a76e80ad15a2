package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"niftiviewer/internal/logging"
	"niftiviewer/internal/models"
	"niftiviewer/pkg/fiducial"
	"niftiviewer/pkg/nifti"
	"niftiviewer/pkg/visualization"
)

var (
	exportDir     string
	exportAxis    string
	exportFormat  string
	exportQuality int
)

// exportCmd writes every slice along an axis as an image file
var exportCmd = &cobra.Command{
	Use:   "export [volume]",
	Short: "Save every slice along an axis as PNG or JPEG images",
	Long: `Extracts every slice of the volume along --axis and writes it to --out.

Axial (z) exports draw the landmarks that lie on each slice.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	addDisplayFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "out", "", "Output directory (default export.dir)")
	exportCmd.Flags().StringVar(&exportAxis, "axis", "z", "Slice axis: x, y or z")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "png or jpeg (default export.format)")
	exportCmd.Flags().IntVar(&exportQuality, "quality", 0, "JPEG quality (default export.quality)")
}

// markerFunc returns the markers visible on each axial slice
func markerFunc(points []fiducial.Point, g models.SliceGeometry, viewer *visualization.Viewer, hex string) (func(int) []visualization.Marker, error) {
	c, err := visualization.ParseColor(hex)
	if err != nil {
		return nil, err
	}
	
	return func(position int) []visualization.Marker {
		var markers []visualization.Marker
		for i, visible := range fiducial.ComputeVisibility(points, position, g) {
			if visible {
				markers = append(markers, visualization.Marker{At: viewer.PlanePosition(points[i].X, points[i].Y), Color: c})
			}
		}
		return markers
	}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Export.Dir = exportDir
	}
	if flags.Changed("format") {
		cfg.Export.Format = exportFormat
	}
	if flags.Changed("quality") {
		cfg.Export.Quality = exportQuality
	}
	
	axis, err := models.ParseAxis(exportAxis)
	if err != nil {
		return err
	}
	format, err := visualization.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Verbose: verbose})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	
	vol, err := nifti.Load(volumePath(args, cfg))
	if err != nil {
		return err
	}
	printImageSize(vol)
	
	viewer, _, err := newViewer(vol, cfg, logger)
	if err != nil {
		return err
	}
	
	opts := visualization.SequenceOptions{Format: format, Quality: cfg.Export.Quality}
	if axis == models.AxisZ {
		points, err := loadLandmarks(cfg, logger)
		if err != nil {
			return err
		}
		if len(points) > 0 {
			if opts.Markers, err = markerFunc(points, vol.Geometry(models.AxisZ), viewer, cfg.Display.MarkerColor); err != nil {
				return err
			}
		}
	}
	
	n, err := viewer.SaveSliceSequence(axis, cfg.Export.Dir, opts)
	if err != nil {
		return err
	}
	logger.Info("slices exported",
		zap.String("axis", axis.String()),
		zap.Int("count", n),
		zap.String("dir", cfg.Export.Dir))
	return nil
}
