package input

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// JSONOptions configures the tabular-JSON reader, spec.md §4.D: input is a
// sequence or a JSON array of objects, nested objects are flattened (key
// path a/b/c becomes a SEP b SEP c), and nested arrays are either skipped
// or fatal.
type JSONOptions struct {
	// FlattenSep joins nested-object key path segments; spec.md §4.D's
	// "separator configurable", defaulting to ":" per config.Options.
	FlattenSep string
	// SkipArrays, if true, silently drops nested-array-valued fields
	// instead of making them a fatal "unmillerable JSON" error.
	SkipArrays bool
}

// NewJSONReader constructs the tabular JSON Reader. json.Decoder's
// streaming token reader (rather than a single json.Unmarshal into
// memory) keeps this reader consistent with the lazy, finite,
// non-restartable sequence contract every other reader in this package
// honors (spec.md §4.D), and also lets object key order survive
// flattening -- json.Unmarshal into a map would lose it, but lrec.Record
// is an ordered model (spec.md §3).
func NewJSONReader(opt JSONOptions) Reader {
	sep := opt.FlattenSep
	if sep == "" {
		sep = ":"
	}
	return &jsonReader{flattenSep: sep, skipArrays: opt.SkipArrays}
}

type jsonReader struct {
	flattenSep string
	skipArrays bool
}

func (d *jsonReader) Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error) {
	dec := json.NewDecoder(rc)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	it := &jsonRowIterator{dec: dec, stream: rc, flattenSep: d.flattenSep, skipArrays: d.skipArrays}
	delim, ok := tok.(json.Delim)
	switch {
	case ok && delim == '[':
		it.inArray = true
	case ok && delim == '{':
		it.pendingOpenBrace = true
	case ok:
		return nil, fmt.Errorf("unmillerable JSON: unexpected top-level token %v", tok)
	default:
		return nil, fmt.Errorf("unmillerable JSON: top-level scalar %v is not an object or array of objects", tok)
	}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return it, nil
}

type jsonRowIterator struct {
	dec        *json.Decoder
	stream     connector.SrcAwareStreamer
	flattenSep string
	skipArrays bool

	inArray          bool
	pendingOpenBrace bool

	current *lrec.Record
	srcName string
	err     error
}

func (it *jsonRowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.pendingOpenBrace {
		it.pendingOpenBrace = false
	} else {
		if it.inArray {
			if !it.dec.More() {
				_, _ = it.dec.Token() // consume closing ']'
				return false
			}
		} else if !it.dec.More() {
			return false
		}
		tok, err := it.dec.Token()
		if err != nil {
			it.err = fmt.Errorf("unmillerable JSON: %w", err)
			return false
		}
		delim, ok := tok.(json.Delim)
		if !ok || delim != '{' {
			it.err = fmt.Errorf("unmillerable JSON: expected object, got %v", tok)
			return false
		}
	}

	r := lrec.New()
	if err := it.decodeObjectInto(r, ""); err != nil {
		it.err = err
		return false
	}
	it.current = r
	it.srcName = it.stream.Current().Name
	return true
}

// decodeObjectInto reads key/value tokens up to the matching '}' (already
// consumed by the caller) and flattens nested objects into r, key paths
// joined by flattenSep. Nested arrays are skipped or fatal per
// skipArrays, per spec.md §4.D.
func (it *jsonRowIterator) decodeObjectInto(r *lrec.Record, prefix string) error {
	for it.dec.More() {
		keyTok, err := it.dec.Token()
		if err != nil {
			return fmt.Errorf("unmillerable JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unmillerable JSON: object key %v is not a string", keyTok)
		}
		fullKey := key
		if prefix != "" {
			fullKey = prefix + it.flattenSep + key
		}

		valTok, err := it.dec.Token()
		if err != nil {
			return fmt.Errorf("unmillerable JSON: %w", err)
		}
		if delim, ok := valTok.(json.Delim); ok {
			switch delim {
			case '{':
				if err := it.decodeObjectInto(r, fullKey); err != nil {
					return err
				}
			case '[':
				if err := it.skipOrRejectArray(fullKey); err != nil {
					return err
				}
			}
			continue
		}
		putScalar(r, fullKey, valTok)
	}
	// Consume the matching '}'.
	if _, err := it.dec.Token(); err != nil {
		return fmt.Errorf("unmillerable JSON: %w", err)
	}
	return nil
}

func (it *jsonRowIterator) skipOrRejectArray(key string) error {
	if !it.skipArrays {
		return fmt.Errorf("unmillerable JSON: array-valued field %q not supported", key)
	}
	depth := 1
	for depth > 0 {
		tok, err := it.dec.Token()
		if err != nil {
			return fmt.Errorf("unmillerable JSON: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
		}
	}
	return nil
}

// putScalar renders a decoded JSON scalar token into its string form,
// preserving integer/float literal text verbatim (spec.md §4.D: "Integer
// and float values preserve their original text") via json.Number.
func putScalar(r *lrec.Record, key string, tok json.Token) {
	switch v := tok.(type) {
	case nil:
		r.Put(key, "", false)
	case json.Number:
		r.Put(key, v.String(), false)
	case bool:
		if v {
			r.Put(key, "true", false)
		} else {
			r.Put(key, "false", false)
		}
	case string:
		r.Put(key, v, true)
	default:
		r.Put(key, fmt.Sprintf("%v", v), false)
	}
}

func (it *jsonRowIterator) Record() *lrec.Record { return it.current }
func (it *jsonRowIterator) SourceName() string   { return it.srcName }
func (it *jsonRowIterator) Err() error           { return it.err }
func (it *jsonRowIterator) Close() error         { return it.stream.Close() }
