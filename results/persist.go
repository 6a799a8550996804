package results

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Appends the record to the JSON array stored in path, creating the file if needed.
//
// An existing file is handled in one of three ways: a blank file starts a new array, content
// ending with ']' is extended in place, and any other content is wrapped into a new array
// together with the record (best effort: the result must still be valid JSON). The whole file
// is rewritten on every call. Nothing is written if the new content would not be valid JSON.
func Append(path string, record Record) error {
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode record")
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "read %s", path)
	}

	content := compose(bytes.TrimSpace(existing), encoded)
	if !json.Valid(content) {
		return errors.Errorf("refusing to write %s: existing content cannot be extended into a valid JSON array", path)
	}

	return writeFile(path, content)
}

func compose(existing []byte, record []byte) []byte {
	var b bytes.Buffer

	switch {
	case len(existing) == 0:
		b.WriteString("[\n")
	case existing[len(existing)-1] == ']':
		head := bytes.TrimSpace(existing[:len(existing)-1])
		b.Write(head)
		// "[]" has no element to separate from
		if !bytes.Equal(head, []byte("[")) {
			b.WriteString(",")
		}
		b.WriteString("\n")
	default:
		b.WriteString("[\n")
		b.Write(existing)
		b.WriteString(",\n")
	}

	b.Write(record)
	b.WriteString("\n]")
	return b.Bytes()
}

// Replaces the file through a temporary file in the same directory, so a failed write never
// leaves a truncated result file behind
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "chmod %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}

	return errors.Wrapf(os.Rename(tmp.Name(), path), "replace %s", path)
}

// Reads every record of a result file
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return records, nil
}
