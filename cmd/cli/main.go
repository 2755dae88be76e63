package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"qcview/adapters/excel"
	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/chart"
	"qcview/internal/render"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "qcview",
		Short:        "qcview CLI for rendering QC workbooks without a browser",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRenderCmd(),
		newHeadersCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type renderOptions struct {
	File     string
	Criteria sheet.Criteria
	OutDir   string
	Width    int
	Height   int
	Font     string
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the table and charts of a workbook to files",
		Long: `Render the first sheet of a workbook as table.html plus one PNG per chart.

Example: qcview render results.xlsx --product PE --date 2025-07-22 --out ./report`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.File = args[0]
			opts.Criteria.Keyword = strings.TrimSpace(opts.Criteria.Keyword)
			return runRender(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Criteria.Keyword, "product", "", "Keep rows whose product contains this text")
	cmd.Flags().StringVar(&opts.Criteria.Date, "date", "", "Keep rows measured on this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.OutDir, "out", ".", "Output directory")
	cmd.Flags().IntVar(&opts.Width, "width", 800, "Chart width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 360, "Chart height in pixels")
	cmd.Flags().StringVar(&opts.Font, "font", os.Getenv("CHART_FONT"), "TTF font with Hangul glyphs for chart labels")

	return cmd
}

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers [file]",
		Short: "Show which column each role resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeaders(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
}

func cliLogger() *internal.Logger {
	return internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(os.Getenv("LOG_LEVEL")))
}

func readWorkbook(ctx context.Context, path string, logger *internal.Logger) (*sheet.Dataset, error) {
	cfg := excel.DefaultExcelConfig()
	cfg.MaxBytes = 0
	return excel.NewDataReader(cfg, logger).ReadFile(ctx, path)
}

func runRender(ctx context.Context, opts renderOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cliLogger()

	ds, err := readWorkbook(ctx, opts.File, logger)
	if err != nil {
		return err
	}
	if !opts.Criteria.IsZero() {
		ds = sheet.Filter(ds, opts.Criteria)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.OutDir, err)
	}

	table, err := os.Create(filepath.Join(opts.OutDir, "table.html"))
	if err != nil {
		return err
	}
	view := render.BuildTable(ds)
	if err := render.WriteTable(table, view); err != nil {
		table.Close()
		return err
	}
	if err := table.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "table.html: %d rows\n", view.RowCount())

	drawOpts := chart.DefaultDrawOptions()
	drawOpts.Width = opts.Width
	drawOpts.Height = opts.Height
	if opts.Font != "" {
		font, err := chart.LoadFont(opts.Font)
		if err != nil {
			return err
		}
		drawOpts.Font = font
	}
	renderer := chart.NewRenderer(chart.Slots, drawOpts, logger)

	result, err := renderer.Render(ctx, ds)
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Fprintf(out, "%s %v\n", chart.MissingHeaderWarning, result.Missing)
		return nil
	}

	for _, slot := range result.Drawn {
		h, ok := renderer.Handle(slot)
		if !ok {
			continue
		}
		image, ok := h.PNG()
		if !ok {
			continue
		}
		name := string(slot) + ".png"
		if err := os.WriteFile(filepath.Join(opts.OutDir, name), image, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d points, mean %.2f\n", name, len(h.Points), h.Summary.Mean)
	}
	return nil
}

func runHeaders(ctx context.Context, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ds, err := readWorkbook(ctx, path, cliLogger())
	if err != nil {
		return err
	}
	res := sheet.ResolveRoles(ds.Header())
	header := ds.Header()
	for _, role := range sheet.Roles {
		col := res[role]
		if !col.Found {
			fmt.Fprintf(out, "%-11s not found (%s)\n", role, strings.Join(role.Keywords(), " | "))
			continue
		}
		fmt.Fprintf(out, "%-11s %d %q\n", role, col.Index, header[col.Index])
	}
	return nil
}
