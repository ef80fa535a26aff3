package mlrval

import "regexp"

// RegexCompiler is the minimal regex-compilation contract mlrval needs.
// dsl/cst supplies a caching implementation (memoized via ristretto); tests
// and callers that don't care about caching can pass CompileRegex.
type RegexCompiler interface {
	Compile(pattern string) (*regexp.Regexp, error)
}

// CompileRegex is the non-caching default RegexCompiler, used when no
// compiler cache is wired in (e.g. direct package tests).
var CompileRegex = regexp.Compile

// Match implements the =~ operator: reports whether v's string form matches
// pattern, using rc to compile (and, typically, cache) the pattern.
// Capture groups from a successful match are returned so the caller (the
// DSL CST) can bind them to \1..\9 for the remainder of the statement.
func Match(v Value, pattern string, rc RegexCompiler) (Value, []string) {
	if v.IsError() {
		return ErrorValue, nil
	}
	re, err := rc.Compile(pattern)
	if err != nil {
		return Error("invalid regex %q: %v", pattern, err), nil
	}
	s := v.String()
	m := re.FindStringSubmatch(s)
	if m == nil {
		return FromBool(false), nil
	}
	return FromBool(true), m
}

// NotMatch implements the !~ operator.
func NotMatch(v Value, pattern string, rc RegexCompiler) Value {
	r, _ := Match(v, pattern, rc)
	return Not(r)
}

// Sub replaces the first match of pattern in v's string form with
// replacement (which may contain \1..\9 backreferences).
func Sub(v Value, pattern, replacement string, rc RegexCompiler) Value {
	return substitute(v, pattern, replacement, rc, false)
}

// Gsub replaces every match of pattern in v's string form.
func Gsub(v Value, pattern, replacement string, rc RegexCompiler) Value {
	return substitute(v, pattern, replacement, rc, true)
}

func substitute(v Value, pattern, replacement string, rc RegexCompiler, global bool) Value {
	if v.IsError() {
		return ErrorValue
	}
	re, err := rc.Compile(pattern)
	if err != nil {
		return Error("invalid regex %q: %v", pattern, err)
	}
	s := v.String()
	goRepl := BackrefsToGoExpand(replacement)
	if !global {
		loc := re.FindStringIndex(s)
		if loc == nil {
			return FromString(s)
		}
		out := s[:loc[0]] + string(re.ExpandString(nil, goRepl, s, re.FindStringSubmatchIndex(s))) + s[loc[1]:]
		return FromString(out)
	}
	return FromString(re.ReplaceAllString(s, goRepl))
}

// BackrefsToGoExpand rewrites \1..\9 backreferences (the syntax spec.md
// §4.B/§4.H documents for rename-by-regex and DSL sub/gsub) into Go's
// regexp.Expand ${1}..${9} form.
func BackrefsToGoExpand(replacement string) string {
	out := make([]byte, 0, len(replacement)+4)
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c == '\\' && i+1 < len(replacement) && replacement[i+1] >= '1' && replacement[i+1] <= '9' {
			out = append(out, '$', '{', replacement[i+1], '}')
			i++
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// Describe returns the type name, for the DSL typeof() builtin.
func Describe(v Value) string { return v.Type().String() }
