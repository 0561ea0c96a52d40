package main

import (
	"context"
	"flag"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/export"
	"github.com/shrimpsizemoose/semla/internal/metrics"
)

func main() {
	var (
		configPath  = flag.String("config", "config.toml", "Path to config file")
		skipFailed  = flag.Bool("skip-failed", false, "Leave lessons that fail to score out of the totals")
		uploadSheet = flag.Bool("gsheet", false, "Upload lessons.csv to the configured Google Sheet")
	)
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()
	service.SkipFailedLessons = *skipFailed

	result, err := service.ScoreCourse()
	if err != nil {
		logger.Error.Fatalf("Failed to compute lesson scores: %v", err)
	}

	if err := service.WriteResults(result); err != nil {
		logger.Error.Fatalf("Failed to write results: %v", err)
	}
	logger.Info.Printf("Wrote %d students to %s", result.Results.Len(), service.Config.Course.OutputDir)

	if err := service.PersistLessonScores(result); err != nil {
		logger.Error.Fatalf("Failed to persist lesson scores: %v", err)
	}

	if *uploadSheet {
		ctx := context.Background()
		exporter, err := export.NewGSheetExporter(ctx, service.Config.GSheet)
		if err != nil {
			logger.Error.Fatalf("Failed to initialize Google Sheets exporter: %v", err)
		}
		if err := exporter.Export(ctx, result.Results); err != nil {
			logger.Error.Fatalf("Failed to upload results: %v", err)
		}
	}

	if path := service.Config.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Error.Printf("%v", err)
		}
	}

	logger.Info.Printf("%s", result.Summary)
}
