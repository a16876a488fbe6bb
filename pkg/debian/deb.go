package debian

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/ulikunitz/xz"
)

// RecordFromDeb reads the control stanza from a .deb.
// It returns nil without error when the archive carries no control file.
func RecordFromDeb(in io.Reader) (*BinaryRecord, error) {
	for reader := ar.NewReader(in); ; {
		// find control.tar.* or die trying
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}

		var controlIn io.Reader
		switch strings.TrimSuffix(hdr.Name, "/") {
		case "control.tar.gz":
			gzIn, err := gzip.NewReader(reader)
			if err != nil {
				return nil, fmt.Errorf("creating gzip reader: %w", err)
			}
			defer gzIn.Close()
			controlIn = gzIn
		case "control.tar.xz":
			controlIn, err = xz.NewReader(reader)
			if err != nil {
				return nil, fmt.Errorf("creating xz reader: %w", err)
			}
		case "control.tar":
			controlIn = reader
		default:
			continue
		}

		// Find ./control within compressed tarball
		for tarR := tar.NewReader(controlIn); ; {
			hdr, err := tarR.Next()
			if errors.Is(err, io.EOF) {
				break
			} else if err != nil {
				return nil, fmt.Errorf("reading archive: %w", err)
			}
			if strings.TrimPrefix(hdr.Name, "./") != "control" {
				continue
			}

			records, err := ParseBinaryIndex(tarR)
			if err != nil {
				return nil, fmt.Errorf("parsing control file: %w", err)
			}
			if len(records) == 1 {
				return &records[0], nil
			}
		}
	}
	return nil, nil
}

// RecordFromDebFile reads the control stanza from a .deb file.
func RecordFromDebFile(fn string) (*BinaryRecord, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return RecordFromDeb(f)
}
