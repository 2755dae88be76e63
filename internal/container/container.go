package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"qcview/adapters/excel"
	"qcview/app"
	"qcview/internal"
	"qcview/internal/api"
	"qcview/internal/chart"
	"qcview/internal/config"
	"qcview/internal/errors"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Reader    *excel.DataReader
	Charts    *chart.Renderer
	SSEHub    *api.SSEHub
	Workbench *app.Workbench
}

// New wires every component from the configuration
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level))

	excelConfig := excel.DefaultExcelConfig()
	excelConfig.MaxBytes = cfg.Data.MaxUploadBytes()

	opts := chart.DefaultDrawOptions()
	opts.Width = cfg.Charts.Width
	opts.Height = cfg.Charts.Height
	if cfg.Charts.Font != "" {
		font, err := chart.LoadFont(cfg.Charts.Font)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		opts.Font = font
	}

	surfaces := make([]chart.Slot, 0, len(cfg.Charts.Surfaces))
	for _, id := range cfg.Charts.Surfaces {
		surfaces = append(surfaces, chart.Slot(id))
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Reader: excel.NewDataReader(excelConfig, logger),
		Charts: chart.NewRenderer(surfaces, opts, logger),
		SSEHub: api.NewSSEHub(),
	}
	c.Workbench = app.NewWorkbench(c.Reader, c.Charts, c.SSEHub, cfg.Data.MaxConcurrentLoads, logger)

	logger.WithComponent("Container").Debug("initialized (surfaces=%v, chart=%dx%d, font=%q)",
		cfg.Charts.Surfaces, opts.Width, opts.Height, cfg.Charts.Font)
	return c, nil
}

// Preload loads the workbook named by EXCEL_FILE, if any
func (c *Container) Preload(ctx context.Context) error {
	path := c.Config.Data.ExcelFile
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	_, err = c.Workbench.Load(ctx, filepath.Base(path), f)
	return err
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.SSEHub.Close()
	for _, h := range c.Charts.Handles() {
		h.Retire()
	}
	c.Logger.WithComponent("Container").Info("shut down")
	return nil
}
