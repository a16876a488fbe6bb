package cache

import (
	"strconv"
	"strings"
)

// Key identifies one cached value. Keys built from the same namespace and parts are equal.
type Key string

type Namespace string

const namespaceSeparator = ":::"

// Key joins parts under the namespace. Parts that are empty or contain a space or quote
// are quoted, so different part lists never produce the same Key.
func (n Namespace) Key(parts ...string) Key {
	var sb strings.Builder
	sb.WriteString(string(n))
	sb.WriteString(namespaceSeparator)
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p == "" || strings.ContainsAny(p, " \"") {
			sb.WriteString(strconv.Quote(p))
		} else {
			sb.WriteString(p)
		}
	}
	return Key(sb.String())
}

func (k Key) Namespace() Namespace {
	ns, _, ok := strings.Cut(string(k), namespaceSeparator)
	if !ok {
		return ""
	}
	return Namespace(ns)
}
