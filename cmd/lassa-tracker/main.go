package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/joseph-ayodele/lassa-tracker/internal/artifact"
	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/dataset"
	"github.com/joseph-ayodele/lassa-tracker/internal/document"
	"github.com/joseph-ayodele/lassa-tracker/internal/enhance"
	"github.com/joseph-ayodele/lassa-tracker/internal/export"
	"github.com/joseph-ayodele/lassa-tracker/internal/extract"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/lassa-tracker/internal/pipeline"
	"github.com/joseph-ayodele/lassa-tracker/internal/raster"
	"github.com/joseph-ayodele/lassa-tracker/internal/region"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cmd := &cli.Command{
		Name:  "lassa-tracker",
		Usage: "extract weekly Lassa fever case tables from NCDC situation reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "root directory holding PDFs_<year> inputs and pipeline outputs",
				Value: "./data",
			},
			&cli.IntFlag{
				Name:  "year",
				Usage: "report year to process",
				Value: 2021,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "enhance, extract and export every report of a year",
				Action: runAction,
			},
			{
				Name:   "enhance",
				Usage:  "render, isolate and enhance table regions only",
				Action: enhanceAction,
			},
			{
				Name:   "extract",
				Usage:  "run the extraction state machine over existing artifacts",
				Action: extractAction,
			},
			{
				Name:  "export",
				Usage: "write the persisted dataset as CSV and XLSX",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "output basename (without extension)",
						Value: "dataset",
					},
				},
				Action: exportAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// app bundles the wired components per invocation.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	docs   document.Store
	proc   *pipeline.Processor
	store  *dataset.Store
	sink   *dataset.Sink
}

func newApp(ctx context.Context, cmd *cli.Command) (*app, error) {
	logger := slog.Default()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	docs := document.NewFSStore(cmd.String("data-dir"), logger)
	blobs := artifact.NewFSStore(cfg.Artifact.Dir)
	sink := dataset.NewSink()

	store, err := dataset.OpenStore(ctx, cfg.Dataset.SQLitePath, logger)
	if err != nil {
		return nil, err
	}

	extractor := gemini.NewClient(gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	proc := &pipeline.Processor{
		Logger:       logger,
		Rasterizer:   raster.NewRasterizer(docs, logger),
		Detector:     region.NewDetector(cfg.Region, logger),
		Enhancer:     enhance.NewEnhancer(logger),
		Exporter:     artifact.NewExporter(blobs, logger),
		Orchestrator: extract.NewOrchestrator(blobs, extractor, sink, cfg.Extract.RetryBudget, logger),
		Store:        store,
		DPI:          cfg.Raster.DPI,
	}

	return &app{cfg: cfg, logger: logger, docs: docs, proc: proc, store: store, sink: sink}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("dataset store close error", "error", err)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	year := cmd.Int("year")
	docs, err := a.docs.List(ctx, year)
	if err != nil {
		return err
	}
	a.logger.Info("run.start", "year", year, "reports", len(docs),
		"workers", a.cfg.Extract.Workers, "retry_budget", a.cfg.Extract.RetryBudget)

	queue := pipeline.NewQueue(a.proc, a.logger,
		pipeline.WithWorkers(a.cfg.Extract.Workers),
		pipeline.WithJobTimeout(a.cfg.Extract.Timeout),
	)
	for _, doc := range docs {
		queue.Enqueue(ctx, pipeline.Job{Doc: doc, PageIndex: a.cfg.Raster.PageIndex})
	}
	queue.Shutdown(ctx)

	recs := a.sink.Snapshot()
	a.logger.Info("run.done", "year", year, "records", len(recs))
	return writeDataset(a, cmd.String("data-dir"), fmt.Sprintf("dataset_%d", year), recs)
}

func enhanceAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	year := cmd.Int("year")
	docs, err := a.docs.List(ctx, year)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		// a short report means the layout changed that week; flag it
		// before rendering so the skip reason is explicit
		pages, err := a.proc.Rasterizer.PageCount(ctx, doc)
		if err != nil {
			a.logger.Warn("enhance.page.skipped", "doc_id", doc.ID, "error", err)
			continue
		}
		if a.cfg.Raster.PageIndex >= pages {
			a.logger.Warn("enhance.page.out_of_range",
				"doc_id", doc.ID, "pages", pages, "want", a.cfg.Raster.PageIndex)
			continue
		}
		if _, err := a.proc.EnhancePage(ctx, doc, a.cfg.Raster.PageIndex); err != nil {
			a.logger.Warn("enhance.page.skipped", "doc_id", doc.ID, "error", err)
		}
	}
	return nil
}

func extractAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	year := cmd.Int("year")
	docs, err := a.docs.List(ctx, year)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		tag := artifact.Tag{DocID: doc.ID, Year: doc.Year, PageIndex: a.cfg.Raster.PageIndex}
		if err := a.proc.ExtractPage(ctx, doc, tag); err != nil {
			a.logger.Warn("extract.page.incomplete", "doc_id", doc.ID, "error", err)
		}
	}

	recs := a.sink.Snapshot()
	return writeDataset(a, cmd.String("data-dir"), fmt.Sprintf("dataset_%d", year), recs)
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	recs, err := a.store.LoadRecords(ctx)
	if err != nil {
		return err
	}
	return writeDataset(a, cmd.String("data-dir"), cmd.String("out"), recs)
}

func writeDataset(a *app, dir, name string, recs []llm.CandidateRecord) error {
	svc := export.NewService(a.logger)

	csvPath := filepath.Join(dir, name+".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	if err := svc.WriteCSV(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	xlsx, err := svc.ExportXLSX(recs)
	if err != nil {
		return err
	}
	xlsxPath := filepath.Join(dir, name+".xlsx")
	if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}

	a.logger.Info("export.ok", "csv", csvPath, "xlsx", xlsxPath, "records", len(recs))
	return nil
}
