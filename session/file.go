package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/clingclang/clingclang/internal/errors"
)

var _ Persister = (*FilePersister)(nil)

// FilePersister keeps the session in a JSON file readable only by the owner.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (fp *FilePersister) Load() (map[string]string, error) {
	data, err := os.ReadFile(fp.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FilePersister Load] read %s", fp.path)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptSession, "[FilePersister Load] %s", fp.path)
	}
	return values, nil
}

// Save writes to a temporary file and renames it so a crash never leaves a
// half written session behind.
func (fp *FilePersister) Save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return apperrors.Wrapf(err, "[FilePersister Save] marshal")
	}

	dir := filepath.Dir(fp.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.Wrapf(err, "[FilePersister Save] mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return apperrors.Wrapf(err, "[FilePersister Save] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrapf(err, "[FilePersister Save] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.Wrapf(err, "[FilePersister Save] chmod")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(err, "[FilePersister Save] close")
	}
	if err := os.Rename(tmp.Name(), fp.path); err != nil {
		return apperrors.Wrapf(err, "[FilePersister Save] rename")
	}
	return nil
}

func (fp *FilePersister) Delete() error {
	if err := os.Remove(fp.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrapf(err, "[FilePersister Delete] remove %s", fp.path)
	}
	return nil
}
