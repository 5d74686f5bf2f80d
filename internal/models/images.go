package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MaxImages caps how many pictures a product or promotion may carry.
const MaxImages = 10

// ImageList is an ordered list of upload paths stored as a JSON text column.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ImageList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("images: cannot scan %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	*l = paths
	return nil
}

// MarshalJSON renders an empty list as [] rather than null.
func (l ImageList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Contains reports whether path is in the list.
func (l ImageList) Contains(path string) bool {
	for _, p := range l {
		if p == path {
			return true
		}
	}
	return false
}

// Removed returns the paths of l that are absent from keep.
func (l ImageList) Removed(keep ImageList) []string {
	var gone []string
	for _, p := range l {
		if !keep.Contains(p) {
			gone = append(gone, p)
		}
	}
	return gone
}
