package encoding

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// Resolver implements domain.EncodingResolver on top of the IANA and WHATWG
// encoding registries.
type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the lower-case IANA name for an encoding label, so "UTF8"
// and "utf-8" both become "utf-8". Labels neither registry knows are
// returned trimmed but otherwise unchanged.
func (r *Resolver) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	enc := lookup(name)
	if enc == nil {
		return name
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil || canonical == "" {
		return name
	}
	return strings.ToLower(canonical)
}

func lookup(name string) encoding.Encoding {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc
	}
	return nil
}
