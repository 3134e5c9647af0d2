package importmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overlay file format. Lets deployments extend the closed table (new widget
// modules, extra icon names) without a code change; the base table is never
// shrunk, only extended.
type overlayFile struct {
	Version string              `yaml:"version"`
	Modules map[string][]string `yaml:"modules"`
	Icons   []string            `yaml:"icons"`
}

// LoadWithOverlay builds the static registry and, if path is non-empty,
// merges the YAML overlay on top of it.
func LoadWithOverlay(path string) (Registry, error) {
	if path == "" {
		return NewStaticRegistry(""), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read importmap overlay: %w", err)
	}
	var overlay overlayFile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse importmap overlay: %w", err)
	}

	base := NewStaticRegistry(overlay.Version).(*staticRegistry)
	for modPath, exports := range overlay.Modules {
		existing := base.modules[modPath]
		for _, symbol := range exports {
			found := false
			for _, have := range existing {
				if have == symbol {
					found = true
					break
				}
			}
			if !found {
				existing = append(existing, symbol)
			}
		}
		base.modules[modPath] = existing
	}
	for _, name := range overlay.Icons {
		if !base.icons[name] {
			base.icons[name] = true
			base.modules[IconModulePath] = append(base.modules[IconModulePath], name)
		}
	}
	return base, nil
}
