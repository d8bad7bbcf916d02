// Package stations holds the station group index: clusters of nearby stations
// treated as interchangeable when searching, each pair carrying its own minimum
// transfer time. The index is built once at startup and read-only afterwards.
package stations

import (
	"encoding/json"
	"log"
	"os"
	"sort"
)

type pairKey struct {
	a, b string
}

// Index answers group membership and minimum transfer time questions. The zero
// value behaves as "no groups".
type Index struct {
	members  map[string][]string // group name -> member stations, deduplicated
	group    map[string]string   // station -> group name
	transfer map[pairKey]int     // station pair -> minimum transfer minutes
}

// GroupConfig mirrors one entry of station_groups.json. Each station entry is a
// [station_a, station_b, transfer_minutes] triple; anything else is skipped.
type GroupConfig struct {
	Group    string            `json:"group"`
	Stations []json.RawMessage `json:"stations"`
}

// Load reads the station group configuration file. A missing or malformed file
// degrades to an empty index rather than failing the process; malformed entries
// are logged and skipped.
func Load(path string) *Index {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: station groups file not loaded from %s: %v", path, err)
		return NewIndex(nil)
	}
	var groups []GroupConfig
	if err := json.Unmarshal(data, &groups); err != nil {
		log.Printf("Error parsing station groups file %s: %v", path, err)
		return NewIndex(nil)
	}
	return NewIndex(groups)
}

// NewIndex builds an index from already-decoded group configuration.
func NewIndex(groups []GroupConfig) *Index {
	idx := &Index{
		members:  make(map[string][]string),
		group:    make(map[string]string),
		transfer: make(map[pairKey]int),
	}
	for _, g := range groups {
		if g.Group == "" {
			log.Printf("Skipping station group with empty name")
			continue
		}
		seen := make(map[string]bool)
		for _, entry := range g.Stations {
			a, b, minutes, ok := decodePair(entry)
			if !ok {
				log.Printf("Skipping malformed station entry in group %s", g.Group)
				continue
			}
			idx.group[a] = g.Group
			idx.group[b] = g.Group
			idx.transfer[pairKey{a, b}] = minutes
			idx.transfer[pairKey{b, a}] = minutes
			for _, s := range []string{a, b} {
				if !seen[s] {
					seen[s] = true
					idx.members[g.Group] = append(idx.members[g.Group], s)
				}
			}
		}
		if len(idx.members[g.Group]) > 0 {
			sort.Strings(idx.members[g.Group])
		}
	}
	log.Printf("Station group index built: %d groups, %d stations", len(idx.members), len(idx.group))
	return idx
}

func decodePair(entry json.RawMessage) (a, b string, minutes int, ok bool) {
	var triple []json.RawMessage
	if json.Unmarshal(entry, &triple) != nil || len(triple) != 3 {
		return "", "", 0, false
	}
	if json.Unmarshal(triple[0], &a) != nil || a == "" {
		return "", "", 0, false
	}
	if json.Unmarshal(triple[1], &b) != nil || b == "" {
		return "", "", 0, false
	}
	if json.Unmarshal(triple[2], &minutes) != nil || minutes < 0 {
		return "", "", 0, false
	}
	return a, b, minutes, true
}

// IsGroup reports whether name denotes a station group.
func (idx *Index) IsGroup(name string) bool {
	_, ok := idx.members[name]
	return ok
}

// Members returns the member stations of a group, or nil for non-group names.
func (idx *Index) Members(name string) []string {
	return idx.members[name]
}

// GroupNames returns every configured group name, sorted.
func (idx *Index) GroupNames() []string {
	names := make([]string, 0, len(idx.members))
	for name := range idx.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand replaces any group name in the input with its member stations;
// non-group names pass through unchanged. The result is deduplicated.
func (idx *Index) Expand(names []string) []string {
	expanded := make([]string, 0, len(names))
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			expanded = append(expanded, s)
		}
	}
	for _, name := range names {
		if members, ok := idx.members[name]; ok {
			for _, m := range members {
				add(m)
			}
		} else {
			add(name)
		}
	}
	return expanded
}

// SameGroup reports whether two distinct stations belong to the same group.
func (idx *Index) SameGroup(a, b string) bool {
	ga, ok := idx.group[a]
	if !ok {
		return false
	}
	gb, ok := idx.group[b]
	return ok && ga == gb
}

// MinTransfer returns the minimum transfer minutes between two stations of the
// same group. The second result is false when the stations are not a configured
// pair.
func (idx *Index) MinTransfer(a, b string) (int, bool) {
	minutes, ok := idx.transfer[pairKey{a, b}]
	return minutes, ok
}
