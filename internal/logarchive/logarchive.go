// Package logarchive compresses captured environment logs after a
// run. Gzip uses the standard library; bzip2 needs the dsnet writer
// since the standard library only decompresses it.
package logarchive

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
)

// Codec names accepted by Compress.
const (
	CodecNone  = "none"
	CodecGzip  = "gzip"
	CodecBzip2 = "bzip2"
)

// ErrUnknownCodec is returned for a codec name outside the supported set.
var ErrUnknownCodec = errors.New("❌ unknown log compression codec")

// ValidCodec reports whether name is an accepted codec.
func ValidCodec(name string) bool {
	return name == CodecNone || name == CodecGzip || name == CodecBzip2
}

// Compress compresses the file at path with the named codec, removes
// the original, and returns the archive path. CodecNone leaves the
// file alone and returns path unchanged.
func Compress(path string, codec string) (string, error) {
	switch codec {
	case CodecNone:
		return path, nil
	case CodecGzip:
		return compressFile(path, path+".gz", func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, gzip.BestCompression)
		})
	case CodecBzip2:
		return compressFile(path, path+".bz2", func(w io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: 9})
		})
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}
}

func compressFile(src, dst string, newWriter func(io.Writer) (io.WriteCloser, error)) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening log: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	cw, err := newWriter(out)
	if err != nil {
		out.Close()
		return "", fmt.Errorf("creating compressing writer: %w", err)
	}

	if _, err := io.Copy(cw, in); err != nil {
		cw.Close()
		out.Close()
		return "", fmt.Errorf("compressing log: %w", err)
	}
	if err := cw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("closing compressing writer: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}

	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("removing original log: %w", err)
	}
	return dst, nil
}
