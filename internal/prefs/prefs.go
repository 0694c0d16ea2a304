package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

// Store configuration constants.
const (
	// dirPermissions is the permission mode for the store directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the store file.
	filePermissions = 0600

	// openTimeout bounds how long Open waits for the file lock.
	openTimeout = 1 * time.Second
)

// bucketName is the single bucket holding all preferences.
var bucketName = []byte("prefs")

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New("prefs: store closed")

// Store is a persistent key-value preferences store backed by bbolt.
//
// Keys are short stable strings (see keys.go); values are stored as their
// textual encoding. Missing keys read as the type's zero value, matching
// the semantics the rest of the system relies on for defaulting.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the preferences store at path.
//
// Parameters:
//   - path: Filesystem path for the bbolt database file
//
// Returns:
//   - *Store: Ready-to-use store
//   - error: If the file cannot be opened or the bucket created
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating prefs directory: %w", err)
	}

	db, err := bbolt.Open(path, filePermissions, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening prefs store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		// Keys earlier releases wrote that nothing reads anymore.
		for _, key := range obsoleteKeys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("creating prefs bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing prefs store: %w", err)
	}
	return nil
}

// GetString returns the string value for key, or "" if unset.
func (s *Store) GetString(key string) string {
	return string(s.get(key))
}

// GetInt returns the integer value for key, or 0 if unset or unparseable.
func (s *Store) GetInt(key string) int {
	v, err := strconv.Atoi(string(s.get(key)))
	if err != nil {
		return 0
	}
	return v
}

// GetBool returns the boolean value for key, or false if unset.
func (s *Store) GetBool(key string) bool {
	return string(s.get(key)) == "1"
}

// PutString stores a string value under key.
func (s *Store) PutString(key, value string) error {
	return s.put(key, []byte(value))
}

// PutInt stores an integer value under key.
func (s *Store) PutInt(key string, value int) error {
	return s.put(key, []byte(strconv.Itoa(value)))
}

// PutBool stores a boolean value under key.
func (s *Store) PutBool(key string, value bool) error {
	if value {
		return s.put(key, []byte("1"))
	}
	return s.put(key, []byte("0"))
}

// Has reports whether key is present in the store.
func (s *Store) Has(key string) bool {
	return s.get(key) != nil
}

// Remove deletes key from the store. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("removing pref %q: %w", key, err)
	}
	return nil
}

// get reads the raw value for key, nil if absent.
func (s *Store) get(key string) []byte {
	if s.db == nil {
		return nil
	}
	var value []byte
	//nolint:errcheck // View cannot fail for a read of an existing bucket
	s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(key)); v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	return value
}

// put writes the raw value for key.
func (s *Store) put(key string, value []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("storing pref %q: %w", key, err)
	}
	return nil
}
