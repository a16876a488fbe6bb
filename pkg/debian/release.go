package debian

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"pault.ag/go/debian/control"
)

var ErrBadSignature = errors.New("bad InRelease signature")

// Release is a decoded Release (or the plaintext of an InRelease) file.
type Release struct {
	Origin        string
	Suite         string
	Codename      string
	Components    string
	Architectures string
	AcquireByHash string `control:"Acquire-By-Hash"`
	SHA256        string
}

// IndexFile is one line of the Release SHA256 table.
type IndexFile struct {
	Path   string
	Size   int64
	SHA256 string
}

// ParseRelease decodes the first paragraph of a Release file.
func ParseRelease(in io.Reader) (*Release, error) {
	dec, err := control.NewDecoder(in, nil)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	var out []Release
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding Release: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty Release file")
	}
	return &out[0], nil
}

func (r Release) ComponentList() []string {
	return strings.Fields(r.Components)
}

func (r Release) ArchitectureList() []string {
	return strings.Fields(r.Architectures)
}

// ByHash reports whether the archive serves indexes under by-hash paths.
func (r Release) ByHash() bool {
	return strings.EqualFold(strings.TrimSpace(r.AcquireByHash), "yes")
}

// Indexes returns the SHA256 table keyed by path relative to dists/<suite>/.
func (r Release) Indexes() map[string]IndexFile {
	ret := map[string]IndexFile{}
	for _, line := range strings.Split(r.SHA256, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		ret[fields[2]] = IndexFile{Path: fields[2], Size: size, SHA256: fields[0]}
	}
	return ret
}

// VerifyInRelease checks the clearsigned InRelease against keyring and returns the
// signed plaintext. A nil keyring skips verification.
func VerifyInRelease(data []byte, keyring openpgp.KeyRing) ([]byte, error) {
	block, _ := clearsign.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no clearsigned message found", ErrBadSignature)
	}
	if keyring == nil {
		return block.Plaintext, nil
	}
	if _, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	return block.Plaintext, nil
}
