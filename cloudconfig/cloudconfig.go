// Package cloudconfig loads named cloud profiles from clouds.yaml-style
// files. A profile is a plain mapping; a secure overlay file merges on top of
// the public one so credentials can live apart from shareable settings.
package cloudconfig

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// formatExclusions are keys whose values never run through the self-reference
// expansion, so a password containing braces stays untouched.
var formatExclusions = map[string]struct{}{"password": {}}

// Config holds the merged contents of the located configuration files.
type Config struct {
	clouds       map[string]map[string]any
	defaultCloud string
	defaults     map[string]any
}

// Cloud is one resolved profile.
type Cloud struct {
	Name   string
	Region string
	Config map[string]any
}

// AuthValue returns a string auth option, or "" when unset.
func (c *Cloud) AuthValue(key string) string {
	auth, ok := c.Config["auth"].(map[string]any)
	if !ok {
		return ""
	}
	v, ok := auth[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

type cloudsFile struct {
	Clouds map[string]map[string]any `yaml:"clouds"`
}

// Load reads the given files in order; later files overlay earlier ones with
// the auth mapping merged rather than replaced. Missing files are skipped so
// a secure overlay stays optional.
func Load(paths ...string) (*Config, error) {
	cfg := &Config{
		clouds:   map[string]map[string]any{},
		defaults: map[string]any{},
	}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("cloudconfig: reading %s: %w", path, err)
		}
		var parsed cloudsFile
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("cloudconfig: parsing %s: %w", path, err)
		}
		for name, cloud := range parsed.Clouds {
			existing, ok := cfg.clouds[name]
			if !ok {
				existing = map[string]any{}
				cfg.clouds[name] = existing
			}
			authUpdate(existing, cloud)
		}
	}
	if len(cfg.clouds) == 1 {
		for name := range cfg.clouds {
			cfg.defaultCloud = name
		}
	}
	return cfg, nil
}

// SetDefaults installs defaults applied under every cloud's settings.
func (c *Config) SetDefaults(defaults map[string]any) {
	c.defaults = defaults
}

// CloudNames returns the declared profile names.
func (c *Config) CloudNames() []string {
	out := make([]string, 0, len(c.clouds))
	for name := range c.clouds {
		out = append(out, name)
	}
	return out
}

// GetOne resolves a single named profile merged with overrides. With name ""
// the sole declared cloud (or an override named "cloud") is used. Override
// keys are normalized: dashes become underscores, an os_ prefix is stripped,
// and nested mappings are normalized recursively. Self-referencing values
// like "{auth_url}/v1" expand against the merged settings; password values
// are exempt.
func (c *Config) GetOne(name string, overrides map[string]any) (*Cloud, error) {
	args := fixArgs(overrides)
	if name == "" {
		if v, ok := args["cloud"].(string); ok {
			name = v
		} else {
			name = c.defaultCloud
		}
	}
	delete(args, "cloud")

	declared, ok := c.clouds[name]
	if name != "" && !ok {
		return nil, fmt.Errorf("cloudconfig: cloud %s was not found", name)
	}

	merged := map[string]any{}
	for k, v := range c.defaults {
		merged[k] = v
	}
	if _, ok := merged["auth"]; !ok {
		merged["auth"] = map[string]any{}
	}
	authUpdate(merged, declared)
	// nil overrides must not clobber declared values
	for k, v := range args {
		if v == nil {
			continue
		}
		if k == "auth" && merged["auth"] != nil {
			if nested, ok := v.(map[string]any); ok {
				authUpdate(merged, map[string]any{"auth": nested})
				continue
			}
		}
		merged[k] = v
	}

	merged = normalizeKeys(merged)
	expandReferences(merged)

	region, _ := merged["region_name"].(string)
	return &Cloud{Name: name, Region: region, Config: merged}, nil
}

// authUpdate overlays src onto dst like a plain update, except the nested
// auth mapping merges key-by-key instead of being replaced.
func authUpdate(dst, src map[string]any) {
	for k, v := range src {
		if k == "auth" {
			srcAuth, ok := v.(map[string]any)
			if !ok {
				dst[k] = v
				continue
			}
			dstAuth, ok := dst[k].(map[string]any)
			if !ok {
				dstAuth = map[string]any{}
			}
			for ak, av := range srcAuth {
				dstAuth[ak] = av
			}
			dst[k] = dstAuth
			continue
		}
		dst[k] = v
	}
}

// fixArgs normalizes caller-supplied option names: dashes to underscores,
// os_ prefixes stripped (with the unprefixed spelling winning on conflict),
// nested mappings fixed recursively.
func fixArgs(args map[string]any) map[string]any {
	out := map[string]any{}
	osArgs := map[string]any{}
	for key, val := range args {
		if nested, ok := val.(map[string]any); ok {
			out[key] = fixArgs(nested)
			continue
		}
		key = strings.ReplaceAll(key, "-", "_")
		if strings.HasPrefix(key, "os_") {
			osArgs[strings.TrimPrefix(key, "os_")] = val
		} else {
			out[key] = val
		}
	}
	for k, v := range osArgs {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func normalizeKeys(config map[string]any) map[string]any {
	out := make(map[string]any, len(config))
	for key, val := range config {
		key = strings.ReplaceAll(key, "-", "_")
		if nested, ok := val.(map[string]any); ok {
			out[key] = normalizeKeys(nested)
			continue
		}
		out[key] = val
	}
	return out
}

// expandReferences substitutes {key} tokens in string values with other
// top-level string settings, one level deep.
func expandReferences(config map[string]any) {
	for key, val := range config {
		if _, excluded := formatExclusions[key]; excluded {
			continue
		}
		s, ok := val.(string)
		if !ok || !strings.Contains(s, "{") {
			continue
		}
		for refKey, refVal := range config {
			rs, ok := refVal.(string)
			if !ok {
				continue
			}
			s = strings.ReplaceAll(s, "{"+refKey+"}", rs)
		}
		config[key] = s
	}
}
