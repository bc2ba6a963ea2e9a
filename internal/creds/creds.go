// Package creds persists upload credentials between runs so the username
// and API key don't have to be passed on every invocation.
package creds

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Credentials struct {
	Username string `yaml:"username"`
	APIKey   string `yaml:"apikey"`
}

func (c Credentials) Complete() bool {
	return c.Username != "" && c.APIKey != ""
}

func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error resolving home directory: %v", err)
	}
	return filepath.Join(home, ".drainpipe", "credentials.yaml"), nil
}

func Load(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("error parsing credentials file: %v", err)
	}
	return c, nil
}

// Save overwrites any previously stored credentials. The file is written
// 0600 under a 0700 directory.
func Save(path string, c Credentials) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("error creating credentials directory: %v", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error encoding credentials: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("error writing credentials file: %v", err)
	}
	return nil
}
