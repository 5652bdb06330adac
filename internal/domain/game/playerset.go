package game

import "encoding/json"

// PlayerSet is an ordered, duplicate-free collection of player ids.
// INVARIANT: no id appears twice; empty ids are never stored
// INVARIANT: insertion order is preserved and marshals as a JSON array (never null)
// Mutations never write into a backing array shared with a copied value.
type PlayerSet struct {
	ids []string
}

// NewPlayerSet builds a set from ids, keeping the first occurrence of each.
// PRE: none
// POST: returned set holds the distinct non-empty ids in input order
func NewPlayerSet(ids ...string) PlayerSet {
	var s PlayerSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains reports whether id is in the set.
func (s PlayerSet) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id if absent. Returns true if the set changed.
func (s *PlayerSet) Add(id string) bool {
	if id == "" || s.Contains(id) {
		return false
	}
	n := len(s.ids)
	s.ids = append(s.ids[:n:n], id)
	return true
}

// Remove deletes id if present. Returns true if the set changed.
func (s *PlayerSet) Remove(id string) bool {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of ids.
func (s PlayerSet) Len() int { return len(s.ids) }

// IDs returns a copy of the ids in order. Never nil.
func (s PlayerSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// MarshalJSON encodes the set as a JSON array.
func (s PlayerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes a JSON array (or null) into the set, dropping duplicates.
func (s *PlayerSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewPlayerSet(ids...)
	return nil
}
