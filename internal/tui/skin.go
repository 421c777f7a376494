package tui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSkinName selects the built-in skin.
const DefaultSkinName = "default"

// Skin is a named dashboard color scheme. Colors accept anything
// lipgloss.Color does: ANSI numbers ("39") or hex ("#5FAFFF").
type Skin struct {
	Name   string     `yaml:"name"`
	Colors SkinColors `yaml:"colors"`
}

// SkinColors lists the colors a skin can override.
type SkinColors struct {
	Title  string `yaml:"title"`
	Accent string `yaml:"accent"`
	Text   string `yaml:"text"`
	Muted  string `yaml:"muted"`
	Bar    string `yaml:"bar"`
	Chart  string `yaml:"chart"`
	Paused string `yaml:"paused"`
	Border string `yaml:"border"`
}

// DefaultSkin returns the built-in skin.
func DefaultSkin() Skin {
	return Skin{
		Name: DefaultSkinName,
		Colors: SkinColors{
			Title:  "#5FAFFF",
			Accent: "39",
			Text:   "252",
			Muted:  "241",
			Bar:    "39",
			Chart:  "63",
			Paused: "208",
			Border: "240",
		},
	}
}

// LoadSkin reads <configDir>/skins/<name>.yml (or .yaml). Colors missing from
// the file keep their default value. The default skin never touches disk.
func LoadSkin(name, configDir string) (Skin, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == DefaultSkinName {
		return DefaultSkin(), nil
	}

	var (
		data []byte
		err  error
	)
	for _, ext := range []string{".yml", ".yaml"} {
		data, err = os.ReadFile(filepath.Join(configDir, "skins", name+ext))
		if !errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	if err != nil {
		return DefaultSkin(), fmt.Errorf("load skin %q: %w", name, err)
	}

	skin := DefaultSkin()
	skin.Name = name
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return DefaultSkin(), fmt.Errorf("parse skin %q: %w", name, err)
	}
	return skin, nil
}
