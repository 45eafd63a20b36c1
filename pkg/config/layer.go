package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mycelium-sh/mycelium/pkg/errors"
	"github.com/mycelium-sh/mycelium/pkg/types"
)

// LoadLayer reads one layer's partial component config from a YAML file.
// A missing file is not an error; it simply means the layer defines
// nothing and is skipped by the merge.
func LoadLayer(fs types.FS, path string) (*LayerConfig, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", path)
	}

	var layer LayerConfig
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "%s is malformed", path)
	}
	return &layer, nil
}
