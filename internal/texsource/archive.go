// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package texsource

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/pdiddy/paperfetch/pkg/types"
)

const (
	tarBlockSize = 512

	// singleFileName holds the body of a gzip e-print that is not a tar
	// archive (single-file submissions).
	singleFileName = "main.tex"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Unpack extracts the archive at archivePath into destDir. The archive may
// be a gzip-compressed tar, an uncompressed tar, or a single gzip-compressed
// file, which is written as main.tex. Entries are unpacked into a sibling
// staging directory that replaces destDir only when every entry succeeded.
// Entries that would land outside destDir are skipped; an entry larger than
// maxEntry bytes fails the whole extraction.
func Unpack(archivePath, destDir string, maxEntry int64) error {
	if maxEntry <= 0 {
		maxEntry = types.DefaultMaxEntrySize
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return types.NewError(types.KindIO, "unpack", "opening "+archivePath, err)
	}
	defer f.Close()

	stream, compressed, err := decompress(bufio.NewReader(f))
	if err != nil {
		return err
	}

	staging := filepath.Join(filepath.Dir(destDir), "."+filepath.Base(destDir)+"."+uuid.NewString()[:8]+".tmp")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return types.NewError(types.KindIO, "unpack", "creating "+staging, err)
	}

	if err := unpackInto(stream, compressed, staging, maxEntry); err != nil {
		os.RemoveAll(staging)
		return err
	}

	if err := os.RemoveAll(destDir); err != nil {
		os.RemoveAll(staging)
		return types.NewError(types.KindIO, "unpack", "replacing "+destDir, err)
	}
	if err := os.Rename(staging, destDir); err != nil {
		os.RemoveAll(staging)
		return types.NewError(types.KindIO, "unpack", "renaming into "+destDir, err)
	}
	return nil
}

// decompress wraps r in a gzip reader when it starts with the gzip magic.
func decompress(r *bufio.Reader) (*bufio.Reader, bool, error) {
	head, _ := r.Peek(len(gzipMagic))
	if !bytes.Equal(head, gzipMagic) {
		return r, false, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, false, types.NewError(types.KindArchive, "unpack", "invalid gzip stream", err)
	}
	return bufio.NewReaderSize(gz, 2*tarBlockSize), true, nil
}

func unpackInto(stream *bufio.Reader, compressed bool, dir string, maxEntry int64) error {
	block, err := stream.Peek(tarBlockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return types.NewError(types.KindArchive, "unpack", "reading archive", err)
	}
	if isTarHeader(block) {
		return extractTar(tar.NewReader(stream), dir, maxEntry)
	}
	if !compressed {
		return types.NewError(types.KindArchive, "unpack", "not a gzip or tar archive", nil)
	}
	return writeEntry(filepath.Join(dir, singleFileName), stream, maxEntry)
}

// isTarHeader reports whether block is a valid tar header (checksum match)
// or the zero block that ends an empty archive.
func isTarHeader(block []byte) bool {
	if len(block) < tarBlockSize {
		return false
	}
	if bytes.Equal(block, make([]byte, tarBlockSize)) {
		return true
	}
	field := bytes.TrimRight(bytes.TrimLeft(block[148:156], " \x00"), " \x00")
	want, err := strconv.ParseInt(string(field), 8, 64)
	if err != nil {
		return false
	}
	var sum int64
	for i, b := range block {
		if i >= 148 && i < 156 {
			b = ' '
		}
		sum += int64(b)
	}
	return sum == want
}

func extractTar(tr *tar.Reader, dir string, maxEntry int64) error {
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			continue
		}
		if err != nil {
			return types.NewError(types.KindArchive, "unpack", "reading tar entry", err)
		}

		name := filepath.Clean(filepath.FromSlash(hdr.Name))
		if !filepath.IsLocal(name) {
			// Absolute or parent-relative entries would escape dir.
			continue
		}
		target := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return types.NewError(types.KindArchive, "unpack", "cannot place directory "+hdr.Name, err)
			}
		case tar.TypeReg:
			if hdr.Size > maxEntry {
				return types.NewError(types.KindArchive, "unpack",
					fmt.Sprintf("entry %s is %d bytes, limit is %d", hdr.Name, hdr.Size, maxEntry), nil)
			}
			if err := writeEntry(target, tr, maxEntry); err != nil {
				return err
			}
		default:
			// Links, devices and extended headers produce no output.
		}
	}
}

// writeEntry copies r to path, creating parent directories first. The
// staging directory is fresh, so a path that cannot be created there
// conflicts with an earlier entry and is an archive error.
func writeEntry(path string, r io.Reader, maxEntry int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.NewError(types.KindArchive, "unpack", "cannot place "+filepath.Base(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return types.NewError(types.KindArchive, "unpack", "cannot place "+filepath.Base(path), err)
	}

	n, copyErr := io.Copy(out, io.LimitReader(r, maxEntry+1))
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		return types.NewError(types.KindArchive, "unpack", "extracting "+filepath.Base(path), copyErr)
	case n > maxEntry:
		return types.NewError(types.KindArchive, "unpack",
			fmt.Sprintf("entry %s exceeds %d bytes", filepath.Base(path), maxEntry), nil)
	case closeErr != nil:
		return types.NewError(types.KindIO, "unpack", "closing "+path, closeErr)
	}
	return nil
}
