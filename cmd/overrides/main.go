package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/models"
)

const usage = `usage: overrides [-config path] <command> [flags]

commands:
  list                                       show all overrides of the course
  set -column C -student S -score X [-reason R]
  delete -column C -student S
`

func main() {
	configPath := flag.String("config", "config.toml", "Path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()
	if service.Store == nil {
		logger.Error.Fatalf("database.dsn is not configured")
	}
	course := service.Config.Course.Name

	cmd := flag.NewFlagSet(flag.Arg(0), flag.ExitOnError)
	column := cmd.String("column", "", "Gradebook column")
	student := cmd.String("student", "", "Student id")
	score := cmd.Float64("score", 0, "Score to force")
	reason := cmd.String("reason", "", "Why the score is overridden")
	if err := cmd.Parse(flag.Args()[1:]); err != nil {
		logger.Error.Fatalf("%v", err)
	}

	switch flag.Arg(0) {
	case "list":
		overrides, err := service.Store.ListScoreOverrides(course)
		if err != nil {
			logger.Error.Fatalf("Failed to list overrides: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "column\tstudent\tscore\treason")
		for _, o := range overrides {
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", o.Column, o.Student, o.Score, o.Reason)
		}
		w.Flush()
	case "set":
		err := service.Store.CreateScoreOverride(models.ScoreOverride{
			Course:  course,
			Column:  *column,
			Student: *student,
			Score:   *score,
			Reason:  *reason,
		})
		if err != nil {
			logger.Error.Fatalf("Failed to save override: %v", err)
		}
		logger.Info.Printf("Override %s/%s = %v saved", *column, *student, *score)
	case "delete":
		if err := service.Store.DeleteScoreOverride(course, *column, *student); err != nil {
			logger.Error.Fatalf("Failed to delete override: %v", err)
		}
		logger.Info.Printf("Override %s/%s deleted", *column, *student)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
