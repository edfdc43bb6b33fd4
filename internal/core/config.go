package core

import (
	"os"
	"strconv"
)

// Config holds the runtime settings that come from the environment and the
// command line. File settings live in internal/config.
type Config struct {
	ConfigDir   string
	InitialFeed string
	// StatePath overrides where scroll positions are persisted
	StatePath string
	Debug     bool
	LogFile   string

	// Overrides for the config file; nil or zero means unset
	Markdown        *bool
	Overscan        int
	EstimatedHeight int
}

// LoadConfig loads the runtime configuration from the environment
func LoadConfig() (*Config, error) {
	config := &Config{
		Overscan: -1,
		LogFile:  "feedview.log",
	}

	config.ConfigDir = os.Getenv("FEEDVIEW_CONFIG_DIR")
	config.InitialFeed = os.Getenv("FEEDVIEW_FEED")

	if debug := os.Getenv("FEEDVIEW_DEBUG"); debug != "" {
		on, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, err
		}
		config.Debug = on
	}

	return config, nil
}
