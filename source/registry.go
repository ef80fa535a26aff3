package source

import (
	"fmt"
	"strings"
	"sync"
)

// OpenerFactory constructs an Opener instance from a source specification
// string, e.g. "file:///path/to/data.psv" or the bare path
// "/local/path.psv" that RegularFileOpenerFactory (factory.go) accepts.
//
// OpenerFactory is registered by scheme via RegisterOpener. The registry
// exists so main.go's openersFor can resolve a positional file argument
// without hardcoding which scheme backs it -- today that's only the file
// scheme, but the indirection is what spec.md §1's "the core only
// consumes a byte source" leans on to keep source discovery pluggable
// without the record-processing core knowing about it.
type OpenerFactory func(spec string) ([]Opener, error)

// RegisterOpener associates a scheme with an OpenerFactory.
//
// This should typically be called from init() within the package that
// implements the opener.
//
// Registration is global for the lifetime of the process. Attempting to
// register the same scheme twice will return an error.
//
// Example:
//
//	func init() {
//	    RegisterOpener(schemeFile, RegularFileOpenerFactory)
//	}
func RegisterOpener(scheme schemeType, f OpenerFactory) error {
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := openerRegistry[scheme]; ok {
		return fmt.Errorf("opener for scheme %q already registered", scheme)
	}
	openerRegistry[scheme] = f
	return nil
}

// OpenerFromSpec resolves a source specification string into an Opener
// instance by inferring its scheme.
//
// Behavior:
//
//   - file:// URIs → schemeFile
//   - bare paths   → schemeFile (default fall-through)
//   - any other scheme (e.g. "s3://...", "http://...") → error, since no
//     factory is registered for it
//
// The returned Opener is ready to be used via its Open(ctx) method.
func OpenerFromSpec(spec string) ([]Opener, error) {
	scheme := detectScheme(spec)
	if scheme == schemeUnknown {
		return nil, fmt.Errorf("unknown scheme for %q", spec)
	}
	regMu.RLock()
	f, ok := openerRegistry[scheme]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no opener registered for scheme %q (spec %q)", scheme, spec)
	}
	return f(spec)
}

// schemeType identifies the access mechanism used to retrieve data from a
// source specification. schemeFile is the only one this module ever
// registers a factory for (factory.go's init); detectScheme maps every
// other "scheme://" spec to schemeUnknown, so OpenerFromSpec returns an
// error quoting the spec instead of misreading it as a file path.
type schemeType string

const (
	// schemeUnknown indicates that no supported access scheme was detected.
	// OpenerFromSpec will treat this as an error.
	schemeUnknown schemeType = "unknown"
	// schemeFile indicates that data should be accessed via local filesystem
	// operations. This applies to both "file://..." URIs and bare paths.
	schemeFile schemeType = "file"
)

var (
	openerRegistry = map[schemeType]OpenerFactory{}
	regMu          sync.RWMutex
)

func detectScheme(spec string) schemeType {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch {
	case strings.HasPrefix(spec, "file://"):
		return schemeFile
	case !strings.Contains(spec, "://"):
		return schemeFile
	default:
		return schemeUnknown
	}
}
