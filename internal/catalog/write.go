package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Output file names written by WriteDir.
const (
	ScriptFile = "keys.js"
	JSONFile   = "keys.json"
)

// scriptPrefix is the assignment the page scripts expect.
const scriptPrefix = "var keyDict = "

// Marshal encodes ds as indented JSON. Map keys are sorted, so the output
// is stable for a given dataset.
func Marshal(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return nil, fmt.Errorf("catalog: encode dataset: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteScript writes ds as a script assigning the dataset to keyDict.
func WriteScript(w io.Writer, ds *Dataset) error {
	data, err := Marshal(ds)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, scriptPrefix); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteDir writes keys.js and keys.json into dir, creating it if needed.
func WriteDir(dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: create output dir: %w", err)
	}

	data, err := Marshal(ds)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, JSONFile), data); err != nil {
		return err
	}

	var script bytes.Buffer
	if err := WriteScript(&script, ds); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, ScriptFile), script.Bytes()); err != nil {
		return err
	}

	slog.Info("wrote catalog", "dir", dir, "keys", len(ds.Keys), "tags", len(ds.Tags))
	return nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("catalog: write %s: %w", path, err)
	}
	return nil
}
