package client

import (
	"fmt"
	"os"
	"path/filepath"
)

// Preflight checks the local environment before commands that need it and
// returns one message per problem found. An empty slice means all clear.
func Preflight(cfg Config, tokens *TokenStore) []string {
	var problems []string

	if err := checkWritable(cfg.MediaDir); err != nil {
		problems = append(problems, fmt.Sprintf("media dir %s is not writable: %v", cfg.MediaDir, err))
	}
	if _, _, err := tokens.Load(); err != nil {
		problems = append(problems, "not logged in (run: chronica login)")
	}
	return problems
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
