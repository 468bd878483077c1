// Package world loads the simulated world a program senses against: a
// flat mapping of channel names to float values.
//
// World files are JSON or YAML. Channel descriptors may be bare numbers
// or wrapper objects ({"value": 0.1}, {"const": 0.1}, nested wrappers,
// or any single-key object); coercion recurses until it reaches a
// number. The engine only ever sees the flat map.
package world

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iatromantis91/semiocore-v1/internal/contracts"
	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// wrapperKeys are tried in order when coercing a descriptor object.
var wrapperKeys = []string{"value", "const", "s", "signal"}

// coerceNumber resolves a channel descriptor to a float64.
func coerceNumber(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to float: %w", x.String(), err)
		}
		return f, nil
	case map[string]any:
		for _, k := range wrapperKeys {
			if inner, ok := x[k]; ok {
				return coerceNumber(inner)
			}
		}
		// A single-key wrapper with an unconventional key still counts.
		if len(x) == 1 {
			for _, inner := range x {
				return coerceNumber(inner)
			}
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return 0, fmt.Errorf("cannot coerce channel descriptor to float, keys=%v", keys)
	default:
		return 0, fmt.Errorf("cannot coerce channel value to float, type=%T", v)
	}
}

// FromDoc builds a world from an already-decoded document.
func FromDoc(doc map[string]any) (ir.World, error) {
	if err := contracts.ValidateWorld(doc); err != nil {
		return ir.World{}, err
	}

	raw, ok := doc["channels"].(map[string]any)
	if !ok {
		return ir.World{}, fmt.Errorf("world 'channels' must be an object mapping names to values")
	}

	channels := make(map[string]float64, len(raw))
	for name, v := range raw {
		f, err := coerceNumber(v)
		if err != nil {
			return ir.World{}, fmt.Errorf("channel %s: %w", name, err)
		}
		channels[name] = f
	}
	return ir.World{Channels: channels}, nil
}

// Load reads and decodes the world file at path. The format follows the
// file extension: .yaml/.yml is YAML, anything else JSON.
func Load(path string) (ir.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.World{}, fmt.Errorf("read world: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return ir.World{}, fmt.Errorf("decode world %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return ir.World{}, fmt.Errorf("decode world %s: %w", path, err)
		}
	}
	return FromDoc(doc)
}
