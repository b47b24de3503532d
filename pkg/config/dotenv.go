package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded in order; earlier files win
var DefaultEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the given env files without overriding variables that
// are already set. Missing files are skipped. It returns the files loaded.
func LoadDotEnv(files ...string) ([]string, error) {
	var loaded []string
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
