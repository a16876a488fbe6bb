package debian

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// LoadKeyring reads every key file in paths into a single keyring.
// Both ASCII-armored (.asc) and binary (.gpg) keyrings are accepted.
func LoadKeyring(paths []string) (openpgp.EntityList, error) {
	var ret openpgp.EntityList
	for _, p := range paths {
		slog.Debug("reading keyring", slog.String("path", p))
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening keyring: %w", err)
		}
		entities, err := KeyringFromReader(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading keyring %q: %w", p, err)
		}
		ret = append(ret, entities...)
	}
	return ret, nil
}

// KeyringFromReader reads an armored or binary keyring from an io.Reader.
func KeyringFromReader(in io.Reader) (openpgp.EntityList, error) {
	b, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(b, []byte("-----BEGIN PGP")) {
		keyRing, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("decoding armored key: %w", err)
		}
		return keyRing, nil
	}
	keyRing, err := openpgp.ReadKeyRing(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	return keyRing, nil
}
