// Copyright 2021 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"strings"

	"github.com/mpvl/unique"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

// NixPathEntry is one resolved element of a NIX_PATH / `__nixPath` search
// list (spec.md §6, `<...>` path literals): an optional prefix, under which
// the remainder of a search query must fall, paired with the filesystem
// root to search.
type NixPathEntry struct {
	Prefix string
	Path   string
}

// nixPathURISchemes lists the schemes whose ':' must not be mistaken for a
// NIX_PATH entry separator (spec.md §8 scenario H).
var nixPathURISchemes = []string{
	"http://", "https://", "file://", "channel://", "channel:", "git://", "s3://", "ssh://",
}

// ParseNixPath splits a colon-separated NIX_PATH string into entries,
// honoring `prefix=path` forms and leaving URI-scheme colons intact
// (spec.md §8 scenario H). Duplicate entries (same prefix and path) are
// removed via github.com/mpvl/unique.
func ParseNixPath(raw string) []NixPathEntry {
	var entries []NixPathEntry
	for _, segment := range splitNixPath(raw) {
		if segment == "" {
			continue
		}
		eq := strings.IndexByte(segment, '=')
		if eq > 0 && !hasURIScheme(segment[:eq+1]) {
			entries = append(entries, NixPathEntry{Prefix: segment[:eq], Path: segment[eq+1:]})
		} else {
			entries = append(entries, NixPathEntry{Path: segment})
		}
	}

	deduped := nixPathEntries(entries)
	n := unique.Sort(deduped)
	return []NixPathEntry(deduped[:n])
}

// nixPathEntries adapts []NixPathEntry to unique.Interface so that
// unique.Sort can collapse entries that share both prefix and path
// (spec.md §8 scenario H: NIX_PATH entries are deduplicated, stably).
type nixPathEntries []NixPathEntry

func (e nixPathEntries) Len() int      { return len(e) }
func (e nixPathEntries) Swap(i, j int) { e[i], e[j] = e[j], e[i] }
func (e nixPathEntries) Less(i, j int) bool {
	if e[i].Prefix != e[j].Prefix {
		return e[i].Prefix < e[j].Prefix
	}
	return e[i].Path < e[j].Path
}
func (e nixPathEntries) Equal(i, j int) bool {
	return e[i].Prefix == e[j].Prefix && e[i].Path == e[j].Path
}

// splitNixPath splits on ':' while refusing to split inside a recognised
// URI scheme's "://" or "channel:" marker.
func splitNixPath(raw string) []string {
	var out []string
	for len(raw) > 0 {
		cut := len(raw)
		for i := 0; i < len(raw); i++ {
			if raw[i] != ':' || isSchemeColon(raw, i) {
				continue
			}
			cut = i
			break
		}
		out = append(out, raw[:cut])
		if cut == len(raw) {
			break
		}
		raw = raw[cut+1:]
	}
	return out
}

// isSchemeColon reports whether the ':' at position i in raw is the colon
// of one of nixPathURISchemes rather than a NIX_PATH entry separator.
func isSchemeColon(raw string, i int) bool {
	for _, scheme := range nixPathURISchemes {
		schemeColon := strings.IndexByte(scheme, ':')
		start := i - schemeColon
		if start < 0 {
			continue
		}
		if strings.HasPrefix(raw[start:], scheme) {
			return true
		}
	}
	return false
}

// hasURIScheme reports whether s, taken as a candidate `prefix=` chunk,
// itself starts with a recognised URI scheme (so its '=' is not a
// prefix/path separator either, e.g. "channel:foo=bar" never occurs in
// practice but "http://host=1" must not be misread as prefix "http").
func hasURIScheme(s string) bool {
	for _, scheme := range nixPathURISchemes {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}

// decodeNixPathList converts the `__nixPath` value (a list of
// `{ prefix, path }` sets, matching real Nix's representation) into
// NixPathEntry values for Store.FindFile.
func decodeNixPathList(e *Eval, v adt.Value) ([]NixPathEntry, error) {
	list, ok := v.(*adt.List)
	if !ok {
		return nil, &adt.TypeError{Expected: "list", Got: v.Kind()}
	}
	entries := make([]NixPathEntry, 0, len(list.Elems))
	for _, id := range list.Elems {
		elemVal, err := e.Force(id)
		if err != nil {
			return nil, err
		}
		attrs, ok := elemVal.(*adt.AttrSet)
		if !ok {
			return nil, &adt.TypeError{Expected: "set", Got: elemVal.Kind()}
		}
		var entry NixPathEntry
		if prefixID, ok := attrs.Get(adt.Intern("prefix")); ok {
			s, _, err := e.AsStringAndContext(prefixID)
			if err != nil {
				return nil, err
			}
			entry.Prefix = s
		}
		pathID, ok := attrs.Get(adt.Intern("path"))
		if !ok {
			return nil, &adt.MissingAttributeError{Name: "path"}
		}
		pathVal, err := e.Force(pathID)
		if err != nil {
			return nil, err
		}
		switch p := pathVal.(type) {
		case adt.Path:
			entry.Path = p.Abs
		case adt.String:
			entry.Path = p.Text
		default:
			return nil, &adt.TypeError{Expected: "path", Got: pathVal.Kind()}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
