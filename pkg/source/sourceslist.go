package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"pault.ag/go/debian/control"
)

const (
	TypeBinary = "deb"
	TypeSource = "deb-src"
)

// Entry is one archive from a sources.list.
type Entry struct {
	Types         []string `yaml:"types"`
	URI           string   `yaml:"uri"`
	Suites        []string `yaml:"suites"`
	Components    []string `yaml:"components"`
	Architectures []string `yaml:"architectures"`
	// SignedBy is a keyring file trusted for this archive only.
	SignedBy string `yaml:"signed_by"`
}

func (e Entry) hasType(t string) bool {
	for _, et := range e.Types {
		if et == t {
			return true
		}
	}
	return false
}

func (e Entry) Binary() bool { return e.hasType(TypeBinary) }
func (e Entry) Source() bool { return e.hasType(TypeSource) }

// ReadSourcesList reads a one-line or deb822 sources file.
func ReadSourcesList(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sources list: %w", err)
	}
	defer f.Close()
	return ParseSourcesList(f)
}

// ParseSourcesList parses either the one-line format or deb822, detected from the first entry.
func ParseSourcesList(in io.Reader) ([]Entry, error) {
	b, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	// drop comments and collapse blank runs, so stanzas stay contiguous
	var cleaned bytes.Buffer
	oneLine, decided, blank := false, false, true
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank {
				cleaned.WriteByte('\n')
			}
			blank = true
			continue
		}
		if !decided {
			first := strings.Fields(line)[0]
			oneLine = first == TypeBinary || first == TypeSource
			decided = true
		}
		cleaned.WriteString(line)
		cleaned.WriteByte('\n')
		blank = false
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sources list: %w", err)
	}
	if !decided {
		return nil, nil
	}

	if oneLine {
		return parseOneLine(cleaned.String())
	}
	return parseDeb822(&cleaned)
}

func parseOneLine(s string) ([]Entry, error) {
	var ret []Entry
	for n, line := range strings.Split(s, "\n") {
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		e := Entry{Types: []string{toks[0]}}
		if e.Types[0] != TypeBinary && e.Types[0] != TypeSource {
			return nil, fmt.Errorf("line %d: unknown type %q", n+1, toks[0])
		}
		toks = toks[1:]

		if len(toks) > 0 && strings.HasPrefix(toks[0], "[") {
			var opts []string
			for len(toks) > 0 {
				f := toks[0]
				toks = toks[1:]
				end := strings.HasSuffix(f, "]")
				if f = strings.Trim(f, "[]"); f != "" {
					opts = append(opts, f)
				}
				if end {
					break
				}
			}
			for _, opt := range opts {
				k, v, _ := strings.Cut(opt, "=")
				switch k {
				case "arch":
					e.Architectures = strings.Split(v, ",")
				case "signed-by":
					e.SignedBy = v
				}
			}
		}

		if len(toks) < 2 {
			return nil, fmt.Errorf("line %d: expected URI and suite", n+1)
		}
		e.URI = toks[0]
		e.Suites = []string{toks[1]}
		if len(toks) > 2 {
			e.Components = toks[2:]
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		ret = append(ret, e)
	}
	return ret, nil
}

type deb822Entry struct {
	Types         string
	URIs          string
	Suites        string
	Components    string
	Architectures string
	SignedBy      string `control:"Signed-By"`
	Enabled       string
}

func parseDeb822(in io.Reader) ([]Entry, error) {
	dec, err := control.NewDecoder(in, nil)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	var raw []deb822Entry
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding sources: %w", err)
	}

	var ret []Entry
	for i, r := range raw {
		if strings.EqualFold(strings.TrimSpace(r.Enabled), "no") {
			continue
		}
		signedBy := strings.TrimSpace(r.SignedBy)
		if strings.Contains(signedBy, "\n") {
			// inline keys are not supported, only keyring paths
			signedBy = ""
		}
		uris := fields(r.URIs)
		if len(uris) == 0 {
			return nil, fmt.Errorf("stanza %d: missing URIs", i+1)
		}
		for _, uri := range uris {
			e := Entry{
				Types:         fields(r.Types),
				URI:           uri,
				Suites:        fields(r.Suites),
				Components:    fields(r.Components),
				Architectures: fields(r.Architectures),
				SignedBy:      signedBy,
			}
			if err := e.Validate(); err != nil {
				return nil, fmt.Errorf("stanza %d: %w", i+1, err)
			}
			ret = append(ret, e)
		}
	}
	return ret, nil
}

// fields is strings.Fields, but nil for blank input.
func fields(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

// Validate reports whether the entry names everything needed to fetch it.
func (e Entry) Validate() error {
	if e.URI == "" {
		return fmt.Errorf("missing URI")
	}
	if len(e.Suites) == 0 {
		return fmt.Errorf("missing suite")
	}
	for _, s := range e.Suites {
		if strings.HasSuffix(s, "/") {
			return fmt.Errorf("flat repository %q is not supported", s)
		}
	}
	if len(e.Components) == 0 {
		return fmt.Errorf("missing components")
	}
	if !e.Binary() && !e.Source() {
		return fmt.Errorf("no supported types in %v", e.Types)
	}
	return nil
}
