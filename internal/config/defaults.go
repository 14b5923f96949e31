package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:         "data/knowledge",
			Dictionary:  "dictionary.json",
			Wordlist:    "words_dictionary.json",
			WordlistURL: lexicon.DefaultWordlistURL,
			Rules:       "pos_rules.json",
			Patterns:    "syntax_patterns.json",
			Learned:     "learned_words.json",
			Grammar:     "grammar_rules.json",
		},
		Learning: LearningConfig{
			Backend:       "json",
			Mode:          "write-through",
			BatchSize:     20,
			FlushInterval: 5 * time.Second,
		},
		DB:      DBConfig{Path: "data/gaia.db"},
		Log:     LogConfig{Level: "info"},
		Analyze: AnalyzeConfig{Workers: 4},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			LearnRate:      5,
			LearnBurst:     10,
		},
	}
}

// setDefaults registers every key with viper so env overrides apply even
// when the config file omits the key.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("data.dictionary", d.Data.Dictionary)
	v.SetDefault("data.wordlist", d.Data.Wordlist)
	v.SetDefault("data.wordlist_url", d.Data.WordlistURL)
	v.SetDefault("data.rules", d.Data.Rules)
	v.SetDefault("data.patterns", d.Data.Patterns)
	v.SetDefault("data.learned", d.Data.Learned)
	v.SetDefault("data.grammar", d.Data.Grammar)
	v.SetDefault("strict_dictionary", d.StrictDictionary)
	v.SetDefault("learning.backend", d.Learning.Backend)
	v.SetDefault("learning.mode", d.Learning.Mode)
	v.SetDefault("learning.batch_size", d.Learning.BatchSize)
	v.SetDefault("learning.flush_interval", d.Learning.FlushInterval)
	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("analyze.workers", d.Analyze.Workers)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.learn_rate", d.Server.LearnRate)
	v.SetDefault("server.learn_burst", d.Server.LearnBurst)
}
