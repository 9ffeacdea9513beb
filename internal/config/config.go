package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Paths are the config files consulted, in order, for flag defaults.
var Paths = []string{
	"~/.config/weightlog/config.toml",
	"weightlog.toml",
}

// TOML is a kong.ConfigurationLoader that resolves flags from a TOML
// document. A flag such as --chart-width is looked up as chart-width,
// chart_width, or width inside a [chart] table.
func TOML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := lookup(values, flag.Name)
		if !ok {
			return nil, nil
		}
		switch v := raw.(type) {
		case map[string]any:
			return nil, fmt.Errorf("%s: expected a value, got a table", flag.Name)
		case []any:
			parts := make([]string, len(v))
			for i, p := range v {
				parts[i] = fmt.Sprint(p)
			}
			return strings.Join(parts, ","), nil
		default:
			return fmt.Sprint(v), nil
		}
	}
	return f, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	snake := strings.ReplaceAll(name, "-", "_")
	if v, ok := values[snake]; ok {
		return v, true
	}

	section, rest, found := strings.Cut(name, "-")
	if !found {
		return nil, false
	}
	table, ok := values[section].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(table, rest)
}

// LoadEnv loads each .env file that exists. Variables already set in the
// environment are left alone.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
