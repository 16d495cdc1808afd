package config

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
)

// Load reads an optional .env file and then binds a Config from the process
// environment. Unset variables take their env-default. Variables already in
// the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to bind config: %w", err)
	}
	return cfg, nil
}
