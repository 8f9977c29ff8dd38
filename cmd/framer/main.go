package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/star/skyframe/internal/coords"
	"github.com/star/skyframe/internal/export"
	"github.com/star/skyframe/internal/framing"
	"github.com/star/skyframe/internal/metrics"
	"github.com/star/skyframe/internal/rigs"
	"github.com/star/skyframe/internal/sky"
)

type config struct {
	Target   string     `env:"FRAMER_TARGET" envDefault:"target"`
	RA       string     `env:"FRAMER_RA,required"`
	Dec      string     `env:"FRAMER_DEC,required"`
	JNow     bool       `env:"FRAMER_JNOW"`
	Rig      string     `env:"FRAMER_RIG"`
	RigsFile string     `env:"FRAMER_RIGS_FILE"`
	Rotation float64    `env:"FRAMER_ROTATION"`
	Lon      float64    `env:"FRAMER_LONGITUDE"`
	Cols     int        `env:"FRAMER_COLS" envDefault:"1"`
	Rows     int        `env:"FRAMER_ROWS" envDefault:"1"`
	Overlap  float64    `env:"FRAMER_OVERLAP" envDefault:"10"`
	CSVPath  string     `env:"FRAMER_CSV_PATH"`
	Metrics  bool       `env:"FRAMER_METRICS"`
	LogLevel slog.Level `env:"FRAMER_LOG_LEVEL" envDefault:"INFO"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger.Info("framer config",
		"target", cfg.Target,
		"rig", cfg.Rig,
		"rigs_file", cfg.RigsFile,
		"rotation", cfg.Rotation,
		"longitude", cfg.Lon,
		"grid", fmt.Sprintf("%dx%d", cfg.Cols, cfg.Rows),
		"overlap_pct", cfg.Overlap,
		"jnow", cfg.JNow,
	)

	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Error("framing failed", "error", err)
		os.Exit(1)
	}

	if cfg.Metrics {
		if err := metrics.WriteText(os.Stderr); err != nil {
			logger.Warn("metrics dump failed", "error", err)
		}
	}
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// run prints the readout and share query to out and writes the CSV plan to
// cfg.CSVPath, or to out when no path is set.
func run(cfg config, logger *slog.Logger, out io.Writer) error {
	catalog, err := rigs.Load(cfg.RigsFile)
	if err != nil {
		return err
	}
	fov, err := catalog.FOV(cfg.Rig)
	if errors.Is(err, rigs.ErrUnknownRig) {
		return fmt.Errorf("%w (known rigs: %s)", err, strings.Join(catalog.Names(), ", "))
	}
	if err != nil {
		return err
	}

	state := sky.FramingState{
		Center:   sky.Coordinate{Epoch: sky.J2000},
		Rotation: cfg.Rotation,
		FOV:      fov,
		Grid:     sky.MosaicGrid{Cols: cfg.Cols, Rows: cfg.Rows, OverlapPct: cfg.Overlap},
	}
	session, err := framing.NewSession(state, logger)
	if err != nil {
		return err
	}

	epoch := sky.J2000
	if cfg.JNow {
		epoch = sky.JNow
	}
	if err := session.SetCenterFromStrings(cfg.RA, cfg.Dec, epoch); err != nil {
		return fmt.Errorf("target position: %w", err)
	}

	panels, err := session.ComputePanels()
	if err != nil {
		return err
	}

	ra, dec := session.Readout()
	fmt.Fprintf(out, "JNow  RA %s  Dec %s\n", ra, dec)
	lst, ha := session.Sidereal(cfg.Lon)
	fmt.Fprintf(out, "LST   %s  HA %+.2f°\n", coords.FormatRAHMS(lst), ha)

	share := export.ShareFromFraming(cfg.Rig, session.State())
	fmt.Fprintf(out, "share ?%s\n", export.EncodeQuery(share))

	if cfg.CSVPath == "" {
		return export.WriteCSV(out, cfg.Target, session.State(), panels)
	}
	f, err := os.Create(cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	if err := export.WriteCSV(f, cfg.Target, session.State(), panels); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing csv: %w", err)
	}
	logger.Info("wrote mosaic plan", "path", cfg.CSVPath, "panels", len(panels))
	return nil
}
