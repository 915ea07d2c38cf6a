/*
   Copyright The hoprd-config-generator Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package os

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	errFilePathContainsInvalidCharacters = errors.New("path contains invalid characters")
	errFilePathIsADirectory              = errors.New("path is a directory, not a regular file")
	errFilePathIsEmpty                   = errors.New("path is empty")
)

// SanitizeOutputPath cleans a path that a file is about to be written to.
// Paths naming an existing directory are rejected.
func SanitizeOutputPath(path string) (string, error) {
	if path == "" {
		return "", errFilePathIsEmpty
	}
	if strings.ContainsAny(path, "\x00\n\r") {
		return "", errFilePathContainsInvalidCharacters
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	switch {
	case err == nil && info.IsDir():
		return "", errFilePathIsADirectory
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	return cleanPath, nil
}

// WriteFile writes data to path with the given permissions. The data is
// written to a temporary file in the same directory first and renamed over
// path, so readers never observe a partially written file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	cleanPath, err := SanitizeOutputPath(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cleanPath), "."+filepath.Base(cleanPath)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), cleanPath)
}
