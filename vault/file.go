package vault

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// readIfExists returns the file contents, or ok == false when the file is absent.
func readIfExists(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// loadOrCreate reads path, or writes the output of create to it when absent.
func loadOrCreate(path string, create func() ([]byte, error)) (data []byte, wasCreated bool, err error) {
	data, ok, err := readIfExists(path)
	if err != nil || ok {
		return data, false, err
	}
	data, err = create()
	if err != nil {
		return nil, false, err
	}
	if err := atomicWriteFile(path, data, filePerm); err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
