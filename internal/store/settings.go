package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/binding"
)

// Settings keys holding the gesture bindings.
const (
	KeyMuteGesture   = "binding.mute_gesture"
	KeyUnmuteGesture = "binding.unmute_gesture"
)

// SettingsRepository provides access to the key-value settings table.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// All returns every setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// BindingBackend persists gesture bindings in the settings table. An
// unbound role has no row.
type BindingBackend struct {
	settings *SettingsRepository
}

// Bindings returns a binding.Backend over this store.
func (s *Store) Bindings() *BindingBackend {
	return &BindingBackend{settings: s.Settings()}
}

// LoadDocument reads both binding keys.
func (b *BindingBackend) LoadDocument() (binding.Document, error) {
	mute, err := b.get(KeyMuteGesture)
	if err != nil {
		return binding.Document{}, err
	}
	unmute, err := b.get(KeyUnmuteGesture)
	if err != nil {
		return binding.Document{}, err
	}

	return binding.Document{
		MuteGesture:   binding.ParseLenient(mute),
		UnmuteGesture: binding.ParseLenient(unmute),
	}, nil
}

func (b *BindingBackend) get(key string) (string, error) {
	v, err := b.settings.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SaveDocument writes both keys in one transaction.
func (b *BindingBackend) SaveDocument(doc binding.Document) error {
	tx, err := b.settings.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	entries := []struct{ key, value string }{
		{KeyMuteGesture, string(doc.MuteGesture)},
		{KeyUnmuteGesture, string(doc.UnmuteGesture)},
	}

	for _, e := range entries {
		key, value := e.key, e.value
		if value == "" {
			if _, err := tx.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now(),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
