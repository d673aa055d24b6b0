// Package artifact reads solver artifacts and writes exported models,
// handling compression and output directory creation.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// IOError reports a failure to read or write an artifact.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ReadFile reads the artifact at path and returns the raw file contents
// along with the decompressed payload. A ".gz", ".zst" or ".lz4" suffix
// selects the decompressor. Otherwise the compression is sniffed from the
// magic number, and data that does not decompress is returned as is, since
// an uncompressed payload may start with the same bytes.
func ReadFile(path string) (raw, payload []byte, err error) {
	raw, err = os.ReadFile(path)
	if err != nil {
		return nil, nil, &IOError{"read", path, err}
	}

	c := CompressionForPath(path)
	strict := c != CompressionNone
	if !strict {
		c = DetectCompression(raw)
	}
	if c == CompressionNone {
		return raw, raw, nil
	}

	glog.V(1).Infof("Decompressing %v input (%d bytes)", c, len(raw))
	payload, err = Decompress(raw, c)
	if err != nil {
		if !strict {
			glog.V(1).Infof("%v does not decompress as %v, reading it uncompressed: %v", path, c, err)
			return raw, raw, nil
		}
		return nil, nil, &IOError{"decompress " + c.String(), path, err}
	}

	return raw, payload, nil
}

// WriteFile compresses data and writes it to path in a single operation,
// creating the parent directory if needed. The data is written to a
// temporary file in the same directory and renamed into place, so a
// reader never sees a partially written file.
func WriteFile(path string, data []byte, c Compression) ([]byte, error) {
	out, err := Compress(data, c)
	if err != nil {
		return nil, &IOError{"compress " + c.String(), path, err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &IOError{"create directory", dir, err}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, &IOError{"create", path, err}
	}
	tmpName := f.Name()
	defer os.Remove(tmpName) // No-op after a successful rename.

	if _, err := f.Write(out); err != nil {
		f.Close()
		return nil, &IOError{"write", path, err}
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return nil, &IOError{"chmod", path, err}
	}
	if err := f.Close(); err != nil {
		return nil, &IOError{"write", path, err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return nil, &IOError{"rename", path, err}
	}

	glog.V(1).Infof("Wrote %d bytes (%v) to %v", len(out), c, path)
	return out, nil
}
