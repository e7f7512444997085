package dictionary

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Load reads an RFC 7932 dictionary blob from path.
func Load(fs afero.Fs, path string) (*Dictionary, error) {
	if fs == nil {
		return nil, errors.New("nil filesystem")
	}

	info, err := fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat dictionary '%s'", path)
	}

	if info.IsDir() {
		return nil, errors.Errorf("dictionary '%s' is a directory", path)
	}

	if info.Size() != StandardSize {
		return nil, errors.Wrapf(ErrSize, "dictionary '%s' has %d bytes", path, info.Size())
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read dictionary '%s'", path)
	}

	return NewStandard(data)
}

// LoadRaw reads a dictionary blob with a custom size bits layout.
func LoadRaw(fs afero.Fs, path string, sizeBits []uint8) (*Dictionary, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read dictionary '%s'", path)
	}

	d, err := New(data, sizeBits)
	if err != nil {
		return nil, errors.Wrapf(err, "dictionary '%s'", path)
	}
	return d, nil
}
