// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package archive packages a generated directory tree into a zip stream.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// DefaultLevel is the deflate level used when Options.Level is zero.
const DefaultLevel = flate.BestCompression

// FixedModTime is stamped on every entry unless Options.PreserveModTime is set.
var FixedModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrNotDirectory is returned when the package root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Options configures Package.
type Options struct {
	// Level is the deflate level, 1 (fastest) to 9 (best). Zero selects DefaultLevel.
	Level int

	// PreserveModTime keeps the files' modification times.
	PreserveModTime bool

	// Exclude lists doublestar patterns matched against entry names.
	Exclude []string
}

// Entry describes one archived file.
type Entry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Manifest lists what was packaged.
type Manifest struct {
	Entries []Entry `json:"entries"`
	Size    int64   `json:"size"`
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Level < 0 || o.Level > flate.BestCompression {
		return fmt.Errorf("compression level must be between 1 and 9, got %d", o.Level)
	}
	for _, pattern := range o.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// Package writes every regular file below dir to w as a zip archive. Entry
// names are slash-separated paths relative to dir, in lexical order. The
// archive is assembled in memory and w receives nothing unless packaging
// succeeds.
func Package(ctx context.Context, dir string, w io.Writer, opts Options) (*Manifest, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	level := opts.Level
	if level == 0 {
		level = DefaultLevel
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	manifest := &Manifest{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if excluded(name, opts.Exclude) {
			return nil
		}

		size, err := addFile(zw, path, name, opts.PreserveModTime)
		if err != nil {
			return err
		}
		manifest.Entries = append(manifest.Entries, Entry{Name: name, Size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to package %s: %w", dir, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	n, err := buf.WriteTo(w)
	if err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}
	manifest.Size = n

	return manifest, nil
}

func addFile(zw *zip.Writer, path, name string, preserveModTime bool) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	header.Name = name
	header.Method = zip.Deflate
	if !preserveModTime {
		header.Modified = FixedModTime
	}

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return 0, err
	}
	return io.Copy(entry, f)
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// AsyncResult is delivered by PackageAsync.
type AsyncResult struct {
	Data     []byte
	Manifest *Manifest
	Err      error
}

// PackageAsync runs Package on its own goroutine. The channel receives
// exactly one result and is then closed.
func PackageAsync(ctx context.Context, dir string, opts Options) <-chan AsyncResult {
	done := make(chan AsyncResult, 1)
	go func() {
		defer close(done)
		var buf bytes.Buffer
		manifest, err := Package(ctx, dir, &buf, opts)
		if err != nil {
			done <- AsyncResult{Err: err}
			return
		}
		done <- AsyncResult{Data: buf.Bytes(), Manifest: manifest}
	}()
	return done
}

// List returns the entry names of a zip archive.
func List(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}
