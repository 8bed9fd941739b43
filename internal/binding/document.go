package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/mudra/internal/gesture"
)

// Document is the persisted form of the bindings: one gesture, or none,
// per role.
//
// On the wire it is {"mute_gesture": name|null, "unmute_gesture": name|null}.
// Decoding is lenient per field: an unrecognized name is kept verbatim so
// the caller can report it, and Store.Replace drops it.
type Document struct {
	MuteGesture   gesture.ID
	UnmuteGesture gesture.ID
}

type wireDocument struct {
	MuteGesture   *string `json:"mute_gesture"`
	UnmuteGesture *string `json:"unmute_gesture"`
}

// rawDocument defers decoding of each field so a bad value only affects
// its own role.
type rawDocument struct {
	MuteGesture   json.RawMessage `json:"mute_gesture"`
	UnmuteGesture json.RawMessage `json:"unmute_gesture"`
}

func (d Document) byRole() map[Role]gesture.ID {
	return map[Role]gesture.ID{
		MuteTrigger:   d.MuteGesture,
		UnmuteTrigger: d.UnmuteGesture,
	}
}

// MarshalJSON writes null for an unbound role.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDocument{
		MuteGesture:   nameOrNil(d.MuteGesture),
		UnmuteGesture: nameOrNil(d.UnmuteGesture),
	})
}

// UnmarshalJSON accepts canonical names and aliases. A field that is not a
// string or null decodes to an invalid ID for its role only.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w rawDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.MuteGesture = parseRaw(w.MuteGesture)
	d.UnmuteGesture = parseRaw(w.UnmuteGesture)
	return nil
}

func parseRaw(raw json.RawMessage) gesture.ID {
	var name *string
	if len(raw) == 0 {
		return gesture.None
	}
	if err := json.Unmarshal(raw, &name); err != nil {
		return gesture.ID(raw)
	}
	return ParseLenient(deref(name))
}

// ParseLenient resolves a stored gesture name. Unknown names come back
// unchanged, and therefore invalid, instead of failing.
func ParseLenient(name string) gesture.ID {
	if name == "" {
		return gesture.None
	}
	if id, err := gesture.Parse(name); err == nil {
		return id
	}
	return gesture.ID(name)
}

func nameOrNil(id gesture.ID) *string {
	if id == gesture.None {
		return nil
	}
	s := string(id)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FileBackend stores the document as a small JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the file location.
func (b *FileBackend) Path() string {
	return b.path
}

// LoadDocument reads the file. A missing file is an empty document.
func (b *FileBackend) LoadDocument() (Document, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", b.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return doc, nil
}

// SaveDocument writes the file via a temp file and rename, so a crash
// mid-write leaves the previous document intact.
func (b *FileBackend) SaveDocument(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".bindings-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

// MemoryBackend keeps the document in memory.
type MemoryBackend struct {
	Doc Document
	Err error
}

// LoadDocument returns the stored document or the configured error.
func (b *MemoryBackend) LoadDocument() (Document, error) {
	return b.Doc, b.Err
}

// SaveDocument stores doc or returns the configured error.
func (b *MemoryBackend) SaveDocument(doc Document) error {
	if b.Err != nil {
		return b.Err
	}
	b.Doc = doc
	return nil
}
