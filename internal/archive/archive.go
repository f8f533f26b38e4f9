// Package archive bundles time directories as tar.gz files and pulls
// single field files back out of them.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// Extension is the suffix of time archives.
const Extension = ".tar.gz"

// ErrMemberNotFound is returned when an archive lacks the requested file.
var ErrMemberNotFound = errors.New("member not found in archive")

// CreateDir writes srcDir and everything below it to a tar.gz file at
// filename. Member names start with the base name of srcDir, so
// "case/0.5" is stored as "0.5/T", "0.5/U" and so on.
func CreateDir(fs afero.Fs, filename, srcDir string) (err error) {
	outFile, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fs.Remove(filename)
		}
	}()

	gzWriter := gzip.NewWriter(outFile)
	tarWriter := tar.NewWriter(gzWriter)

	base := filepath.Base(srcDir)
	walkErr := afero.Walk(fs, srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		name := base
		if relPath != "." {
			name = path.Join(base, filepath.ToSlash(relPath))
		}
		if info.IsDir() {
			name += "/"
		}
		header.Name = name

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			file, err := fs.Open(p)
			if err != nil {
				return err
			}
			defer file.Close()

			if _, err := io.Copy(tarWriter, file); err != nil {
				return err
			}
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("failed to archive %s: %w", srcDir, walkErr)
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzWriter.Close()
}

// List returns the member names of a tar.gz file.
func List(fs afero.Fs, filename string) ([]string, error) {
	var names []string
	err := scan(fs, filename, func(h *tar.Header, _ io.Reader) (bool, error) {
		names = append(names, h.Name)
		return false, nil
	})
	return names, err
}

// ExtractMember copies the archive member called member to dst, creating
// parent directories as needed. A leading "./" in member names is ignored.
func ExtractMember(fs afero.Fs, filename, member, dst string) error {
	want := cleanName(member)
	found := false
	err := scan(fs, filename, func(h *tar.Header, r io.Reader) (bool, error) {
		if h.Typeflag != tar.TypeReg || cleanName(h.Name) != want {
			return false, nil
		}
		found = true
		return true, writeFile(fs, dst, r, os.FileMode(h.Mode).Perm())
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, filename)
	}
	return nil
}

func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "./")
}

// scan calls visit for each member until visit returns true or an error.
func scan(fs afero.Fs, filename string, visit func(*tar.Header, io.Reader) (bool, error)) error {
	f, err := fs.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", filename, err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive %s: %w", filename, err)
		}
		done, err := visit(h, tr)
		if err != nil || done {
			return err
		}
	}
}

func writeFile(fs afero.Fs, dst string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0644
	}
	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", dst, err)
	}
	return out.Close()
}
