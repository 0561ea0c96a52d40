package main

import (
	"flag"
	"os"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/metrics"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		bookPath   = flag.String("gradebook", "", "Canvas gradebook export to update")
		outPath    = flag.String("out", "", "Output file, defaults to a timestamped name in the output dir")
		verbose    = flag.Bool("verbose", false, "Print per-column changes")
		dryRun     = flag.Bool("dry-run", false, "Report differences without writing the export")

		column    = flag.String("column", "", "Merge a single score file into this column instead of the configured merges")
		scores    = flag.String("scores", "", "Score file for -column")
		sidColumn = flag.String("sid-column", "email", "Student id column of the -scores file")
		scoreCol  = flag.String("score-column", "total score", "Score column of the -scores file")
		sidEmail  = flag.Bool("sid-is-email", true, "Strip the domain from -scores ids")
		grabFirst = flag.Bool("grab-first", false, "Take the first matching column when -column is a prefix of several")
	)
	flag.Parse()

	if *bookPath == "" {
		logger.Error.Fatalf("-gradebook is required")
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	merges := service.Config.Gradebook.Merge
	if *column != "" {
		merges = []app.MergeConfig{{
			Column:      *column,
			File:        *scores,
			SIDColumn:   *sidColumn,
			ScoreColumn: *scoreCol,
			SIDIsEmail:  *sidEmail,
			GrabFirst:   *grabFirst,
		}}
	}

	book, changes, err := service.UpdateGradebook(*bookPath, merges)
	if err != nil {
		logger.Error.Fatalf("Failed to update gradebook: %v", err)
	}

	if err := changes.Render(os.Stdout, *verbose); err != nil {
		logger.Error.Fatalf("Failed to render differences: %v", err)
	}

	if !*dryRun {
		path, err := book.Export(*outPath)
		if err != nil {
			logger.Error.Fatalf("Failed to export gradebook: %v", err)
		}
		logger.Info.Printf("Saved gradebook to %s", path)
	}

	if path := service.Config.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Error.Printf("%v", err)
		}
	}
}
