package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const configEnv = "DIRLISTSEEK_CONFIG_PATH"

// configPath returns DIRLISTSEEK_CONFIG_PATH, or ~/.dirlistseek when unset.
func configPath() (string, error) {
	if path := os.Getenv(configEnv); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dirlistseek"), nil
}

// LoadConfigArgs returns the default arguments stored in the config file.
// Each non-empty line that does not start with # holds a flag, optionally
// followed by its value ("--passes 3" or "--passes=3"); fields are split on
// whitespace. A missing file is not an error. A file that cannot be read to
// the end is, so no flag after the failure point is silently dropped.
func LoadConfigArgs() ([]string, error) {
	path, err := configPath()
	if err != nil {
		return nil, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		args = append(args, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return args, nil
}
