package artifact

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Compression identifies the container an artifact is wrapped in.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

var compressionStr = [...]string{
	"none",
	"gzip",
	"zstd",
	"lz4",
}

var compressionExt = [...]string{
	"",
	".gz",
	".zst",
	".lz4",
}

// Magic numbers at the start of each compressed format.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Compression) String() string {
	if int(c) < len(compressionStr) {
		return compressionStr[c]
	}
	return fmt.Sprintf("unknown(%d)", c)
}

// Ext returns the conventional file name suffix, "" for CompressionNone.
func (c Compression) Ext() string {
	if int(c) < len(compressionExt) {
		return compressionExt[c]
	}
	return ""
}

// ParseCompression parses the name of a compression format. "gz" is
// accepted as an alias for gzip.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, errors.Errorf("unknown compression: %q", name)
	}
}

// CompressionForPath returns the compression implied by the file name suffix.
func CompressionForPath(path string) Compression {
	ext := strings.ToLower(filepath.Ext(path))
	for c := CompressionGzip; int(c) < len(compressionExt); c++ {
		if ext == c.Ext() {
			return c
		}
	}
	return CompressionNone
}

// DetectCompression sniffs the compression of data from its magic number.
func DetectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(data, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Compress wraps data in the given format.
func Compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, errors.Errorf("unsupported compression: %v", c)
	}
}

// Decompress unwraps data that was compressed in the given format.
func Decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)

	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))

	default:
		return nil, errors.Errorf("unsupported compression: %v", c)
	}
}
