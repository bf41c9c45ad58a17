package indexfile

import (
	"encoding/json"
	"fmt"
)

// Record is the wire form of one post in the index resource (blogs.json).
// The file is a flat JSON array; array order is display order.
type Record struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
	MDFile  string `json:"md_file,omitempty"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Decode parses the raw index document.
func Decode(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse index json: %w", err)
	}
	return records, nil
}

// Encode serializes records as the pretty-printed export artifact.
// Output order is input order.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode index json: %w", err)
	}
	return append(data, '\n'), nil
}
