package madison

import "fmt"

// KeyFunc selects the group key a listing's rows are reported under.
type KeyFunc func(ListingDescriptor) string

func Codename(l ListingDescriptor) string { return l.Codename }

func Component(l ListingDescriptor) string { return l.Component }

func KeyFuncByName(name string) (KeyFunc, error) {
	switch name {
	case "", "codename":
		return Codename, nil
	case "component":
		return Component, nil
	default:
		return nil, fmt.Errorf("unknown key function %q", name)
	}
}
