package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON renders a result to the writer in the persisted transcript
// layout.
func WriteJSON(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return nil
}

// SaveJSON writes the result to a file, replacing any previous content only
// on success.
func SaveJSON(path string, result *Result) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if err := WriteJSON(f, result); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save transcript: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadJSON parses a persisted transcript.
func ReadJSON(r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &result, nil
}
