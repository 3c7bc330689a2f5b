package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed presets/*.toml
var presetFS embed.FS

// Presets returns the names of the built-in rule sets, sorted.
func Presets() []string {
	entries, err := fs.ReadDir(presetFS, "presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Preset returns the compiled built-in rule set for a language.
func Preset(language string) (*Compiled, error) {
	data, err := presetFS.ReadFile("presets/" + strings.ToLower(language) + ".toml")
	if err != nil {
		return nil, fmt.Errorf("%q: %w", language, ErrUnknownLanguage)
	}
	rs, err := Decode(FormatTOML, data)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", language, err)
	}
	return rs.Compile()
}

// PresetForExtension returns the built-in rule set registered for a file
// extension such as ".cbl".
func PresetForExtension(ext string) (*Compiled, error) {
	ext = strings.ToLower(ext)
	for _, name := range Presets() {
		c, err := Preset(name)
		if err != nil {
			return nil, err
		}
		for _, e := range c.Extensions() {
			if e == ext {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("extension %q: %w", ext, ErrUnknownLanguage)
}
