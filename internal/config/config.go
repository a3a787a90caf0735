package config

import (
	"log"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Device
		Export
		Context
		Watch
	}

	Device struct {
		Drive      string // mount point of the Kobo device, auto-detected if empty
		TempDBName string // local copy of KoboReader.sqlite
	}
	Export struct {
		Dir              string
		StateDBPath      string
		OpenFolderOnDone bool
	}
	Context struct {
		Paragraphs    int     // whole paragraphs before/after the highlight's paragraph
		Words         int     // word budget on each side in word mode
		MaxWords      int     // hard cap on total context words
		MinConfidence float64 // fuzzy-match threshold below which context is unavailable
	}
	Watch struct {
		Enabled  bool
		Schedule string // cron format: "0 * * * *" = hourly
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("kobo_drive", "")
	v.SetDefault("temp_db_name", DefaultTempDBName)
	v.SetDefault("export_dir", DefaultExportDir)
	v.SetDefault("state_db_path", DefaultStateDBPath)
	v.SetDefault("open_folder_on_finish", false)
	v.SetDefault("context_paragraphs", DefaultContextParagraphs)
	v.SetDefault("context_words", DefaultContextWords)
	v.SetDefault("max_context_words", DefaultMaxContextWords)
	v.SetDefault("min_match_confidence", DefaultMinConfidence)
	v.SetDefault("watch_enabled", false)
	v.SetDefault("watch_schedule", "0 * * * *") // Hourly at :00

	return &Config{
		Device: Device{
			Drive:      v.GetString("KOBO_DRIVE"),
			TempDBName: v.GetString("TEMP_DB_NAME"),
		},
		Export: Export{
			Dir:              v.GetString("EXPORT_DIR"),
			StateDBPath:      v.GetString("STATE_DB_PATH"),
			OpenFolderOnDone: v.GetBool("OPEN_FOLDER_ON_FINISH"),
		},
		Context: Context{
			Paragraphs:    intOrDefault(v, "CONTEXT_PARAGRAPHS", DefaultContextParagraphs),
			Words:         intOrDefault(v, "CONTEXT_WORDS", DefaultContextWords),
			MaxWords:      intOrDefault(v, "MAX_CONTEXT_WORDS", DefaultMaxContextWords),
			MinConfidence: confidenceOrDefault(v, "MIN_MATCH_CONFIDENCE"),
		},
		Watch: Watch{
			Enabled:  v.GetBool("WATCH_ENABLED"),
			Schedule: v.GetString("WATCH_SCHEDULE"),
		},
	}
}

// intOrDefault reads a non-negative integer setting. Negative or
// non-numeric values fall back to the default with a warning; bad
// configuration never aborts a run.
func intOrDefault(v *viper.Viper, key string, def int) int {
	val := v.GetInt(key)
	if val < 0 {
		log.Printf("WARNING: %s=%d is invalid, using default %d", key, val, def)
		return def
	}
	if val == 0 && v.GetString(key) != "" && v.GetString(key) != "0" {
		log.Printf("WARNING: %s=%q is not a number, using default %d", key, v.GetString(key), def)
		return def
	}
	return val
}

func confidenceOrDefault(v *viper.Viper, key string) float64 {
	val := v.GetFloat64(key)
	if val <= 0 || val > 1 {
		if v.GetString(key) != "" {
			log.Printf("WARNING: %s=%q is not a confidence in (0, 1], using default %v", key, v.GetString(key), DefaultMinConfidence)
		}
		return DefaultMinConfidence
	}
	return val
}
