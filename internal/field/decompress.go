package field

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// Decompressor expands the compressed file src into dst.
type Decompressor interface {
	Decompress(src, dst string) error
}

// GzipDecompressor decompresses in-process on Fs.
type GzipDecompressor struct {
	Fs afero.Fs
}

// Decompress implements Decompressor. A partially written dst is removed
// on failure.
func (d GzipDecompressor) Decompress(src, dst string) error {
	in, err := d.Fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to read gzip header of %s: %w", src, err)
	}
	defer zr.Close()

	out, err := d.Fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		d.Fs.Remove(dst)
		return fmt.Errorf("failed to decompress %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		d.Fs.Remove(dst)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// CommandDecompressor runs an external program that writes the
// decompressed stream to stdout, by default "gunzip -c". It works on the
// operating system filesystem only. A non-zero exit status or a missing
// output file is reported as an error.
type CommandDecompressor struct {
	Name string
	Args []string
}

// DefaultCommand is the external decompression program.
var DefaultCommand = CommandDecompressor{Name: "gunzip", Args: []string{"-c"}}

// Decompress implements Decompressor.
func (d CommandDecompressor) Decompress(src, dst string) error {
	name := d.Name
	args := d.Args
	if name == "" {
		name, args = DefaultCommand.Name, DefaultCommand.Args
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	var stderr bytes.Buffer
	cmd := exec.Command(name, append(append([]string{}, args...), src)...)
	cmd.Stdout = out
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	closeErr := out.Close()

	if runErr != nil {
		os.Remove(dst)
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s failed on %s: %w: %s", name, src, runErr, msg)
		}
		return fmt.Errorf("%s failed on %s: %w", name, src, runErr)
	}
	if closeErr != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to write %s: %w", dst, closeErr)
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("%s produced no output for %s: %w", name, src, err)
	}
	return nil
}
