package app

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/gradebook"
	"github.com/shrimpsizemoose/semla/internal/loader"
)

// MergeConfig is one score export merged into a gradebook column.
type MergeConfig struct {
	Column      string            `toml:"column"`
	File        string            `toml:"file"`
	SIDColumn   string            `toml:"sid_column"`
	ScoreColumn string            `toml:"score_column"`
	SIDIsEmail  bool              `toml:"sid_is_email"`
	DummyRows   int               `toml:"dummy_rows"`
	Renames     map[string]string `toml:"renames"`
	GrabFirst   bool              `toml:"grab_first"`
}

func (m MergeConfig) ResultsOptions() loader.ResultsOptions {
	return loader.ResultsOptions{
		SIDColumn:   m.SIDColumn,
		ScoreColumn: m.ScoreColumn,
		SIDIsEmail:  m.SIDIsEmail,
		DummyRows:   m.DummyRows,
		Renames:     m.Renames,
	}
}

func (m MergeConfig) Policy() gradebook.MatchPolicy {
	if m.GrabFirst {
		return gradebook.FirstMatch
	}
	return gradebook.Unique
}

type Config struct {
	Course struct {
		Name           string   `toml:"name"`
		Timezone       string   `toml:"timezone"`
		DataDir        string   `toml:"data_dir"`
		OutputDir      string   `toml:"output_dir"`
		ColumnTemplate string   `toml:"column_template"`
		TotalColumn    string   `toml:"total_column"`
		DropLowest     int      `toml:"drop_lowest"`
		RosterColumns  []string `toml:"roster_columns"`
	} `toml:"course"`

	Completions loader.CompletionOptions `toml:"completions"`
	Results     loader.ResultsOptions    `toml:"results"`

	Gradebook struct {
		gradebook.Options
		Merge []MergeConfig `toml:"merge"`
	} `toml:"gradebook"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Metrics struct {
		Textfile string `toml:"textfile"`
	} `toml:"metrics"`

	GSheet GSheetConfig `toml:"gsheet"`
}

type GSheetConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	// TimestampRange is an optional cell stamped with the upload time.
	TimestampRange string `toml:"timestamp_range"`
}

func (g GSheetConfig) Enabled() bool {
	return g.SheetID != "" && g.CredentialsPath != ""
}

// DefaultConfig carries the values the course has always been graded with.
func DefaultConfig() Config {
	var c Config
	c.Course.Timezone = "America/Los_Angeles"
	c.Course.DataDir = "data/lessons"
	c.Course.OutputDir = "out/lesson_scores"
	c.Course.ColumnTemplate = "L{num}"
	c.Course.TotalColumn = "total"
	c.Course.DropLowest = 3
	c.Course.RosterColumns = []string{"name", "tutorial"}
	c.Completions = loader.DefaultCompletionOptions()
	c.Results = loader.DefaultResultsOptions()
	c.Gradebook.Options = gradebook.DefaultOptions()
	c.Database.MigrationsDir = "./migrations"
	c.GSheet.SheetName = "lessons"
	return c
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger.Debug.Printf("Loaded course config: %+v", config.Course)

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Course.Name == "" {
		return fmt.Errorf("course name is not specified in config, use a value like \"cse163\"")
	}
	if c.Course.DropLowest < 0 {
		return fmt.Errorf("course.drop_lowest must not be negative, got %d", c.Course.DropLowest)
	}
	if _, err := time.LoadLocation(c.Course.Timezone); err != nil {
		return fmt.Errorf("course.timezone %q: %w", c.Course.Timezone, err)
	}
	if c.Gradebook.SIDColumn == "" {
		return fmt.Errorf("gradebook.sid_column is not specified")
	}
	for i, m := range c.Gradebook.Merge {
		if m.Column == "" || m.File == "" || m.SIDColumn == "" || m.ScoreColumn == "" {
			return fmt.Errorf("gradebook.merge[%d] needs column, file, sid_column and score_column", i)
		}
	}
	return nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Course.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
