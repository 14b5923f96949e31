package config

import (
	"path/filepath"
	"time"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// Config is the root configuration of the gaia CLI.
type Config struct {
	Data             DataConfig     `mapstructure:"data" yaml:"data"`
	StrictDictionary bool           `mapstructure:"strict_dictionary" yaml:"strict_dictionary"`
	Learning         LearningConfig `mapstructure:"learning" yaml:"learning"`
	DB               DBConfig       `mapstructure:"db" yaml:"db"`
	Log              LogConfig      `mapstructure:"log" yaml:"log"`
	Analyze          AnalyzeConfig  `mapstructure:"analyze" yaml:"analyze"`
	Server           ServerConfig   `mapstructure:"server" yaml:"server"`
}

// DataConfig locates the knowledge tables. Relative file names are resolved
// against Dir.
type DataConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	Dictionary  string `mapstructure:"dictionary" yaml:"dictionary"`
	Wordlist    string `mapstructure:"wordlist" yaml:"wordlist"`
	WordlistURL string `mapstructure:"wordlist_url" yaml:"wordlist_url" validate:"omitempty,url"`
	Rules       string `mapstructure:"rules" yaml:"rules"`
	Patterns    string `mapstructure:"patterns" yaml:"patterns"`
	Learned     string `mapstructure:"learned" yaml:"learned"`
	Grammar     string `mapstructure:"grammar" yaml:"grammar"`
}

// LearningConfig controls where and when learned words are persisted.
type LearningConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend" validate:"oneof=json sqlite"`
	Mode          string        `mapstructure:"mode" yaml:"mode" validate:"oneof=write-through batched"`
	BatchSize     int           `mapstructure:"batch_size" yaml:"batch_size" validate:"min=1,max=10000"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval" validate:"min=10ms"`
}

// DBConfig holds the sqlite settings shared by the learned table backend and
// the memory log.
type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AnalyzeConfig tunes the document analysis pipeline.
type AnalyzeConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" validate:"min=1,max=256"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// LearnRate is the sustained number of learn requests per second.
	LearnRate  float64 `mapstructure:"learn_rate" yaml:"learn_rate" validate:"gt=0"`
	LearnBurst int     `mapstructure:"learn_burst" yaml:"learn_burst" validate:"min=1"`
}

func (d DataConfig) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// Paths returns the table locations for lexicon.Load.
func (d DataConfig) Paths() lexicon.Paths {
	return lexicon.Paths{
		Dictionary: d.resolve(d.Dictionary),
		Rules:      d.resolve(d.Rules),
		Wordlist:   d.resolve(d.Wordlist),
		Patterns:   d.resolve(d.Patterns),
		Learned:    d.resolve(d.Learned),
	}
}

// GrammarPath returns the location of the grammar hint file.
func (d DataConfig) GrammarPath() string { return d.resolve(d.Grammar) }

// WordlistPath returns the location of the external wordlist.
func (d DataConfig) WordlistPath() string { return d.resolve(d.Wordlist) }
