/*
	Pictoria
	Copyright (c) 2026 Pictoria Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pictoria/pictoria/catalog"
	"go.uber.org/zap"
)

const defaultListenAddr = "127.0.0.1:12790"

// Config describes the application configuration.
// Config values must not be copied (i.e. use pointers).
type Config struct {
	sync.RWMutex `json:"-"`

	// The listen address to bind the API socket to.
	Listen string `json:"listen,omitempty"`

	// Path of the catalog database file.
	DBPath string `json:"db_path,omitempty"`

	// Language the index was built with; purely informational for the
	// search layer, surfaced to API clients so they can render
	// descriptions correctly.
	Language string `json:"language,omitempty"`

	// Replace result paths with base64 data URIs when the catalog
	// embeds image bytes.
	EmbedImages bool `json:"embed_images,omitempty"`

	log *zap.Logger
}

// LoadConfig reads configuration from the JSON file at path, after
// loading a .env file if one is present. A missing config file is not an
// error; defaults and environment variables apply.
func LoadConfig(path string) (*Config, error) {
	// optional, for local development
	_ = godotenv.Load()

	cfg := new(Config)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	cfg.fillDefaults()
	return cfg, nil
}

func (cfg *Config) fillDefaults() {
	cfg.Lock()
	defer cfg.Unlock()
	if cfg.log == nil {
		cfg.log = catalog.Log.Named("config").With(zap.Time("loaded", time.Now()))
	}
}

func (cfg *Config) listenAddr() string {
	cfg.RLock()
	defer cfg.RUnlock()
	if envVal := os.Getenv("PICTORIA_LISTEN"); envVal != "" {
		return envVal
	}
	if cfg.Listen != "" {
		return cfg.Listen
	}
	return defaultListenAddr
}

func (cfg *Config) dbPath() string {
	cfg.RLock()
	defer cfg.RUnlock()
	if envVal := os.Getenv("PICTORIA_DB"); envVal != "" {
		return envVal
	}
	return cfg.DBPath
}

func (cfg *Config) embedImages() bool {
	cfg.RLock()
	defer cfg.RUnlock()
	return cfg.EmbedImages
}

func (cfg *Config) language() string {
	cfg.RLock()
	defer cfg.RUnlock()
	return cfg.Language
}
