// Package catalog holds the category mapping produced alongside the trained
// pipeline. The position of a name in its list is the code used by the
// encoded training data.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Dimension keys present in the category mapping file.
const (
	KeyAirline       = "airline"
	KeyFrom          = "from"
	KeyTo            = "to"
	KeyStopsCategory = "stops_category"
	KeyClassCategory = "class_category"
)

// RequiredKeys must all be present in a mapping file.
var RequiredKeys = []string{KeyAirline, KeyFrom, KeyTo, KeyStopsCategory, KeyClassCategory}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	names map[string][]string
}

// Load reads a category mapping file such as
//
//	{"airline": ["Air India", "Indigo"], "from": ["Delhi"], ...}
//
// Extra keys are kept and reachable through Names.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category mapping %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Catalog from the JSON contents of a mapping file.
func Parse(data []byte) (*Catalog, error) {
	var names map[string][]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse category mapping: %w", err)
	}
	for _, key := range RequiredKeys {
		if _, ok := names[key]; !ok {
			return nil, fmt.Errorf("category mapping is missing key %q", key)
		}
	}
	return &Catalog{names: names}, nil
}

// Names returns a copy of the ordered names for key, or nil for an unknown key.
func (c *Catalog) Names(key string) []string {
	list, ok := c.names[key]
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Decode maps an encoded index back to its category name.
func (c *Catalog) Decode(key string, index int) (string, error) {
	list, ok := c.names[key]
	if !ok {
		return "", fmt.Errorf("unknown category key %q", key)
	}
	if index < 0 || index >= len(list) {
		return "", fmt.Errorf("%s index %d out of range [0,%d)", key, index, len(list))
	}
	return list[index], nil
}

// Airlines returns the distinct airline names sorted A-Z.
func (c *Catalog) Airlines() []string {
	return distinctSorted(c.names[KeyAirline])
}

// Cities returns the distinct union of departure and destination names, sorted.
func (c *Catalog) Cities() []string {
	all := append(c.Names(KeyFrom), c.names[KeyTo]...)
	return distinctSorted(all)
}

func distinctSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, name := range in {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
