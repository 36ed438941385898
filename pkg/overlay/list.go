package overlay

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ListOverlays walks dir recursively and returns the sorted base names of
// every *.dtbo file. A missing directory yields an empty list.
func ListOverlays(fs afero.Fs, dir string) ([]string, error) {
	if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
		return nil, err
	}

	var names []string
	err := afero.Walk(fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), "."+TypeDTBO) {
			names = append(names, info.Name())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
