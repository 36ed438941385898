package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// interfaceFile is the on-disk shape of an extra interface definition:
//
//	overlays:
//	  my-spi-display: [uart4=off, spi1=on]
type interfaceFile struct {
	Overlays map[string][]string `yaml:"overlays"`
}

// LoadInterfaceTable extends base with every *.yaml / *.yml file found in
// dir. Files are applied in lexical order so later files win. A missing
// directory is not an error: base is returned as-is.
func LoadInterfaceTable(fs afero.Fs, dir string, base *InterfaceTable) (*InterfaceTable, error) {
	if base == nil {
		base = DefaultInterfaceTable()
	}
	if dir == "" {
		return base, nil
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read interfaces directory %s: %w", dir, err)
	}

	var names []string
	for _, info := range infos {
		ext := filepath.Ext(info.Name())
		if !info.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)

	extra := make(map[string]ToggleSet)
	for _, name := range names {
		path := filepath.Join(dir, name)
		entries, err := loadInterfaceFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load interface file %s: %w", path, err)
		}
		for id, set := range entries {
			extra[id] = set
		}
		logSink.Debug("loaded interface definitions", "file", path, "overlays", len(entries))
	}

	return base.With(extra), nil
}

func loadInterfaceFile(fs afero.Fs, path string) (map[string]ToggleSet, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var file interfaceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	entries := make(map[string]ToggleSet, len(file.Overlays))
	for id, raw := range file.Overlays {
		if id == "" {
			return nil, fmt.Errorf("overlay name must not be empty")
		}
		var set ToggleSet
		for _, s := range raw {
			t, err := ParseToggle(s)
			if err != nil {
				return nil, fmt.Errorf("overlay %s: %w", id, err)
			}
			set = append(set, t)
		}
		entries[id] = set
	}
	return entries, nil
}
