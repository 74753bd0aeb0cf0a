package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File is an optional TOML document whose keys are flag names, e.g.
//
//	github-owner = "civicrm"
//	github-verify-tls = false
//
// Values given on the command line or in the environment take precedence.
type File struct {
	Path string
}

// Flags returns CLI flags for the configuration file
func (c *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML configuration file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("CARROT_CONFIG"),
		},
	}
}

// Apply sets every flag of cmd (not its parents) that is present in the file and not set otherwise
func (c *File) Apply(cmd *cli.Command) error {
	if c.Path == "" {
		return nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", c.Path))
	}

	values, err := ParseFile(data)
	if err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.Path))
	}

	known := make(map[string]bool)
	for _, flag := range cmd.Flags {
		for _, name := range flag.Names() {
			known[name] = true
		}
	}

	for name, value := range values {
		if !known[name] {
			return goerr.New("unknown key in config file", goerr.V("path", c.Path), goerr.V("key", name))
		}
		if cmd.IsSet(name) {
			continue
		}
		if err := cmd.Set(name, value); err != nil {
			return goerr.Wrap(err, "invalid value in config file", goerr.V("key", name))
		}
	}

	return nil
}

// ParseFile decodes a flat TOML document into flag values
func ParseFile(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "invalid TOML")
	}

	values := make(map[string]string, len(raw))
	for key, v := range raw {
		// keys may also be written with underscores
		name := strings.ReplaceAll(key, "_", "-")

		switch v := v.(type) {
		case string:
			values[name] = v
		case bool, int64, float64:
			values[name] = fmt.Sprint(v)
		default:
			return nil, goerr.New("config values must be strings, numbers or booleans",
				goerr.V("key", key), goerr.V("type", fmt.Sprintf("%T", v)))
		}
	}

	return values, nil
}
