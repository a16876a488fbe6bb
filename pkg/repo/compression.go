package repo

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

type Compression string

const (
	CompressionNone Compression = ""
	CompressionBZIP Compression = "bz2"
	CompressionGZIP Compression = "gz"
	CompressionXZ   Compression = "xz"
)

// Compressions is the order indexes are tried in, smallest first.
var Compressions = []Compression{CompressionXZ, CompressionGZIP, CompressionBZIP, CompressionNone}

func (c Compression) String() string {
	return string(c)
}

func (c Compression) Extension() string {
	switch c {
	case CompressionBZIP:
		return ".bz2"
	case CompressionGZIP:
		return ".gz"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

func (c Compression) Compress(data []byte) ([]byte, error) {
	switch c {
	case CompressionGZIP:
		var buf bytes.Buffer
		compressor := gzip.NewWriter(&buf)
		if _, err := compressor.Write(data); err != nil {
			return nil, err
		}
		if err := compressor.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionXZ:
		var buf bytes.Buffer
		compressor, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := compressor.Write(data); err != nil {
			return nil, err
		}
		if err := compressor.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionBZIP:
		return nil, fmt.Errorf("bzip compression not implemented")

	case CompressionNone:
		return data, nil

	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

func (c Compression) Decompress(data []byte) ([]byte, error) {
	var r io.Reader
	switch c {
	case CompressionGZIP:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case CompressionXZ:
		xzR, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		r = xzR
	case CompressionBZIP:
		r = bzip2.NewReader(bytes.NewReader(data))
	case CompressionNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", c, err)
	}
	return out, nil
}
