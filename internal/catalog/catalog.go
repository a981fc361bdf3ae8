// Package catalog loads the pool of item ids a draft can ban or pick.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed items.json
var defaultItems []byte

// Default returns the embedded item list.
func Default() []string {
	ids, err := Parse(defaultItems)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded items.json: %v", err))
	}
	return ids
}

// Load reads a catalog from path, or returns Default when path is empty.
func Load(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	ids, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return ids, nil
}

// Parse accepts either a list of ids or a list of objects with an "id" field.
// Duplicates and blanks are dropped; order is kept.
func Parse(data []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for i, r := range raw {
		id, err := parseEntry(r)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return ids, nil
}

func parseEntry(r json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(r, &id); err == nil {
		return id, nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r, &obj); err != nil {
		return "", fmt.Errorf("want a string or an object with an id")
	}
	return obj.ID, nil
}
