package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"niftiviewer/internal/logging"
	"niftiviewer/internal/models"
	"niftiviewer/internal/session"
	"niftiviewer/internal/tui"
	"niftiviewer/pkg/config"
	"niftiviewer/pkg/fiducial"
	"niftiviewer/pkg/navigation"
	"niftiviewer/pkg/nifti"
	"niftiviewer/pkg/visualization"
)

// defaultConfigPath is read when --config is not given; a missing file means defaults
const defaultConfigPath = "niftiviewer.yaml"

var (
	// Global flags
	configPath string
	verbose    bool
	
	// Viewer flags, applied over the config file when set
	landmarksPath   string
	initialSlice    int
	colorWindow     float64
	colorLevel      float64
	autoWindow      bool
	strictLandmarks bool
)

// rootCmd opens the interactive viewer
var rootCmd = &cobra.Command{
	Use:   "niftiviewer [volume]",
	Short: "Browse the axial slices of a NIfTI volume with landmark markers",
	Long: `niftiviewer shows one axial slice of a NIfTI volume at a time in the terminal.

Up/Right move to the next slice, Down/Left to the previous one. Landmarks
loaded with --landmarks are drawn only on the slices they lie on.

The volume path defaults to input.volume from the config file.

While the viewer owns the terminal, log output goes to logging.file
(niftiviewer.log by default), including one "Slice: N" line per move.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runViewer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	
	addDisplayFlags(rootCmd)
	rootCmd.Flags().IntVar(&initialSlice, "slice", 0, "Initial axial slice")
	rootCmd.Flags().BoolVar(&strictLandmarks, "strict-landmarks", false, "Fail on the first malformed landmark line")
	
	rootCmd.AddCommand(infoCmd, exportCmd)
}

// addDisplayFlags registers the flags shared by the viewer and export
func addDisplayFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&landmarksPath, "landmarks", "l", "", "Comma-separated landmark file (id,x,y,z)")
	cmd.Flags().Float64Var(&colorWindow, "window", 0, "Color window")
	cmd.Flags().Float64Var(&colorLevel, "level", 0, "Color level")
	cmd.Flags().BoolVar(&autoWindow, "auto-window", false, "Derive window/level from intensity percentiles")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage formats a fatal error for stderr
func errorMessage(err error) string {
	var decodeErr *nifti.DecodeError
	var convErr *visualization.ConversionError
	var parseErr *fiducial.ParseError
	switch {
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("Error reading image: %s: %v", decodeErr.Path, decodeErr.Err)
	case errors.As(err, &convErr):
		return fmt.Sprintf("Error converting image: %v", convErr)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Error reading landmarks: %v", parseErr)
	}
	return fmt.Sprintf("Error: %v", err)
}

// loadSettings reads the config file and applies the flags the user set
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	
	flags := cmd.Flags()
	if flags.Changed("landmarks") {
		cfg.Input.Landmarks = landmarksPath
	}
	if flags.Changed("strict-landmarks") {
		cfg.Input.StrictLandmarks = strictLandmarks
	}
	if flags.Changed("slice") {
		cfg.Display.InitialSlice = initialSlice
	}
	if flags.Changed("window") {
		cfg.Display.ColorWindow = colorWindow
	}
	if flags.Changed("level") {
		cfg.Display.ColorLevel = colorLevel
	}
	if flags.Changed("auto-window") {
		cfg.Display.AutoWindow = autoWindow
	}
	return cfg, nil
}

// volumePath returns the positional volume argument or the configured default
func volumePath(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Input.Volume
}

// newViewer builds the slice converter. The automatic window is returned
// whenever it can be computed so the viewer can toggle to it later.
func newViewer(vol *models.Volume, cfg *config.Config, logger *zap.Logger) (*visualization.Viewer, *session.WindowLevel, error) {
	var auto *session.WindowLevel
	window, level, err := visualization.AutoWindow(vol.Data, cfg.Display.LowPercentile, cfg.Display.HighPercentile)
	if err != nil {
		logger.Warn("automatic window unavailable", zap.Error(err))
	} else {
		auto = &session.WindowLevel{Window: window, Level: level}
	}
	
	if cfg.Display.AutoWindow {
		if auto == nil {
			return nil, nil, &visualization.ConversionError{Op: "auto window", Err: err}
		}
		window, level = auto.Window, auto.Level
	} else {
		window, level = cfg.Display.ColorWindow, cfg.Display.ColorLevel
	}
	
	viewer, err := visualization.NewViewer(vol, window, level)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("window/level", zap.Float64("window", window), zap.Float64("level", level))
	return viewer, auto, nil
}

// loadLandmarks reads the configured landmark file. Without one there are no landmarks.
func loadLandmarks(cfg *config.Config, logger *zap.Logger) ([]fiducial.Point, error) {
	if cfg.Input.Landmarks == "" {
		return nil, nil
	}
	
	policy := fiducial.PolicySkip
	if cfg.Input.StrictLandmarks {
		policy = fiducial.PolicyAbort
	}
	
	result, err := fiducial.LoadFile(cfg.Input.Landmarks, policy)
	if err != nil {
		return nil, err
	}
	for _, skipped := range result.Skipped {
		logger.Warn("skipping malformed landmark line",
			zap.Int("line", skipped.Line),
			zap.Int("field", skipped.Field),
			zap.String("text", skipped.Text))
	}
	logger.Info("landmarks loaded",
		zap.String("path", cfg.Input.Landmarks),
		zap.Int("points", len(result.Points)),
		zap.Int("skipped", len(result.Skipped)))
	return result.Points, nil
}

func printImageSize(vol *models.Volume) {
	fmt.Printf("Image size: %d x %d x %d\n", vol.Width, vol.Height, vol.Depth)
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	
	// The viewer owns the terminal, so logs go to the configured file
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Verbose: verbose, File: cfg.Logging.File})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	
	path := volumePath(args, cfg)
	vol, err := nifti.Load(path)
	if err != nil {
		return err
	}
	printImageSize(vol)
	logger.Info("volume loaded",
		zap.String("path", path),
		zap.String("datatype", vol.Datatype),
		zap.Float64s("spacing", vol.Spacing[:]),
		zap.Float64s("origin", vol.Origin[:]))
	
	viewer, auto, err := newViewer(vol, cfg, logger)
	if err != nil {
		return err
	}
	
	points, err := loadLandmarks(cfg, logger)
	if err != nil {
		return err
	}
	
	nav, err := navigation.NewNavigator(navigation.SliceRange{Min: 0, Max: vol.Depth - 1}, cfg.Display.InitialSlice)
	if err != nil {
		return err
	}
	
	model := tui.NewModel(tui.Options{
		Title:       filepath.Base(path),
		PixelAspect: vol.Spacing[1] / vol.Spacing[0],
	})
	sess, err := session.New(session.Config{
		Navigator:   nav,
		Converter:   viewer,
		Renderer:    model,
		Points:      points,
		Geometry:    vol.Geometry(models.AxisZ),
		MarkerColor: cfg.Display.MarkerColor,
		AutoWindow:  auto,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	model.SetController(sess)
	if err := sess.Start(); err != nil {
		return err
	}
	
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return model.Err()
}
