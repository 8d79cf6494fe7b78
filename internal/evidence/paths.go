package evidence

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// first returns the first result along paths that exists and is not null.
func first(root gjson.Result, paths ...string) (gjson.Result, string, bool) {
	for _, p := range paths {
		r := root.Get(p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		if r.Type == gjson.String && strings.TrimSpace(r.Str) == "" {
			continue
		}
		return r, p, true
	}
	return gjson.Result{}, "", false
}

// firstString returns the first non-empty string along paths. Numbers are
// rendered in their raw form.
func firstString(root gjson.Result, paths ...string) string {
	r, _, ok := first(root, paths...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.String())
}

// firstInt returns the first value along paths that coerces to an int and
// satisfies valid. Values that fail either check are skipped.
func firstInt(root gjson.Result, valid func(int) bool, paths ...string) *int {
	for _, p := range paths {
		r, _, ok := first(root, p)
		if !ok {
			continue
		}
		n, err := cast.ToIntE(cleanNumber(r))
		if err != nil {
			continue
		}
		if valid != nil && !valid(n) {
			continue
		}
		return &n
	}
	return nil
}

// firstFloat returns the first value along paths that coerces to a float.
func firstFloat(root gjson.Result, paths ...string) *float64 {
	for _, p := range paths {
		r, _, ok := first(root, p)
		if !ok {
			continue
		}
		f, err := cast.ToFloat64E(cleanNumber(r))
		if err != nil {
			continue
		}
		return &f
	}
	return nil
}

// cleanNumber strips currency symbols, thousands separators, and trailing
// decimals from numeric strings so cast can coerce them.
func cleanNumber(r gjson.Result) any {
	if r.Type == gjson.Number {
		return r.Num
	}
	s := strings.TrimSpace(r.String())
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	return s
}

// stringList reads an array of strings or a comma/semicolon separated string.
func stringList(root gjson.Result, paths ...string) []string {
	r, _, ok := first(root, paths...)
	if !ok {
		return nil
	}
	var out []string
	if r.IsArray() {
		for _, v := range r.Array() {
			if s := strings.TrimSpace(v.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, part := range strings.FieldsFunc(r.String(), func(c rune) bool { return c == ',' || c == ';' }) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
