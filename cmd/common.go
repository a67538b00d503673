/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/booktran/internal/config"
	"github.com/valpere/booktran/internal/store"
	"github.com/valpere/booktran/internal/translator"
)

// serviceNames lists the values accepted by --service.
var serviceNames = []string{"ollama", "openrouter", "google"}

// buildService constructs the translation service selected in svc.
func buildService(svc config.Service) (translator.TranslationService, translator.ServiceConfig, error) {
	cfg := translator.ServiceConfig{
		APIKey:      svc.APIKey,
		Model:       svc.Model,
		BaseURL:     svc.BaseURL,
		Credentials: svc.Credentials,
	}

	switch strings.ToLower(svc.Name) {
	case "ollama":
		return translator.NewOllamaTranslator(svc.BaseURL, svc.Model), cfg, nil
	case "openrouter":
		return translator.NewOpenRouterService(svc.APIKey, svc.BaseURL, svc.Model), cfg, nil
	case "google":
		return translator.NewGoogleService(), cfg, nil
	default:
		return nil, cfg, fmt.Errorf("unknown service %q (available: %s)", svc.Name, strings.Join(serviceNames, ", "))
	}
}

// openStore opens the job database, creating its directory when needed.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// dbPath returns the database path from flags, environment or config file.
func dbPath() (string, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return "", err
	}
	if dbFlag != "" {
		return dbFlag, nil
	}
	return v.GetString(config.KeyDB), nil
}

// samePath reports whether a and b name the same file, comparing absolute
// paths and, when both exist, file identity (symlinks, hard links).
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}
