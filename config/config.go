// The MIT License (MIT)
//
// # Copyright (c) 2024 aesdsocket contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config holds the appliance's CLI/JSON configuration surface: a
// JSON file can overlay whatever the CLI flags already set, and the
// result is validated with struct tags before use.
package config

import (
	"encoding/json"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
)

// Config is the fully-resolved configuration for the aesdsocket server.
type Config struct {
	Daemonize bool `json:"daemonize"`

	Port     int    `json:"port" validate:"min=1,max=65535"`
	Capacity int    `json:"capacity" validate:"min=1"`
	Backend  string `json:"backend" validate:"oneof=memory file"`
	DataFile string `json:"datafile"`

	MaxPacketBytes int  `json:"maxpacket" validate:"min=1"`
	Compress       bool `json:"compress"`

	TimestampEnabled  bool          `json:"timestamp"`
	TimestampInterval time.Duration `json:"-"`

	MetricsEnabled bool   `json:"metrics"`
	MetricsAddr    string `json:"metricsaddr"`

	LogFile string `json:"log"`
}

// Default returns the appliance's out-of-the-box configuration.
func Default() Config {
	return Config{
		Port:              9000,
		Capacity:          10,
		Backend:           "memory",
		DataFile:          "/var/tmp/aesdsocketdata",
		MaxPacketBytes:    1 << 20,
		TimestampInterval: 10 * time.Second,
		MetricsAddr:       ":9090",
	}
}

// Validate checks struct-tag constraints with
// github.com/go-playground/validator/v10, surfacing every violated field
// at once rather than failing on the first.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// ParseJSONFile decodes path into c, overlaying whatever CLI flags were
// already set: a JSON file can override flags, not the reverse.
func ParseJSONFile(c *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(c)
}
