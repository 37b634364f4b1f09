// Package archive unpacks the source zip so the CSV it carries can be scanned.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// Extraction reports what EnsureExtracted did.
type Extraction struct {
	// CSVPath is the location of the CSV after the call.
	CSVPath string

	// Extracted is false when the CSV was already present and the archive was not touched.
	Extracted bool

	// Files counts the regular files written from the archive.
	Files int
}

// EnsureExtracted makes destDir/csvName available, unzipping archivePath into destDir
// when the CSV is not already there. Repeated calls extract at most once.
func EnsureExtracted(archivePath, destDir, csvName string) (Extraction, error) {
	csvPath := filepath.Join(destDir, csvName)
	result := Extraction{CSVPath: csvPath}

	if _, err := os.Stat(csvPath); err == nil {
		return result, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("stat %s: %w", csvPath, err)
	}

	if _, err := os.Stat(archivePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%s: %w", archivePath, usaccidents.ErrArchiveNotFound)
		}
		return result, fmt.Errorf("stat %s: %w", archivePath, err)
	}

	n, err := extractAll(archivePath, destDir)
	if err != nil {
		return result, err
	}
	result.Extracted = true
	result.Files = n

	if _, err := os.Stat(csvPath); err != nil {
		return result, fmt.Errorf("archive %s does not contain %s: %w", archivePath, csvName, usaccidents.ErrArchiveNotFound)
	}

	return result, nil
}

func extractAll(archivePath, destDir string) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", destDir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", destDir, err)
	}

	files := 0
	for _, f := range r.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return files, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return files, err
		}
		files++
	}

	return files, nil
}

// entryPath resolves an entry name under root and rejects names that escape it.
func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, root)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer src.Close()

	// Partial output stays under the .part name until the copy completes.
	tmp := target + ".part"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	return os.Rename(tmp, target)
}
