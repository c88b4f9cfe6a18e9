package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store is the durable record of users and sub-bots.
// Every method reads or writes the backing storage; nothing is kept in memory
// between calls.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	AddUser(ctx context.Context, u User) error
	AddBot(ctx context.Context, b Bot) error
	// SetOwner replaces the owner record.
	SetOwner(ctx context.Context, o Owner) error
	Close() error
}

// document is the on-disk layout of the identity file.
type document struct {
	Owner *Owner `json:"owner,omitempty"`
	Users []User `json:"users"`
	Bots  []Bot  `json:"user_bot"`
}

// FileStore keeps the identity record in a single JSON file. Every write is a
// read-modify-write of the whole document, replaced atomically via rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// OpenFileStore returns a FileStore for path, creating an empty document when
// the file does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StoreError{Op: "init", Err: err}
		}
		if err := s.write(document{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, &StoreError{Op: "init", Err: err}
	}
	return s, nil
}

// Snapshot reads the whole file.
func (s *FileStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, &StoreError{Op: "read", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Owner: doc.Owner, Users: doc.Users, Bots: doc.Bots}, nil
}

// AddUser appends u.
func (s *FileStore) AddUser(ctx context.Context, u User) error {
	return s.update(ctx, func(doc *document) { doc.Users = append(doc.Users, u) })
}

// AddBot appends b.
func (s *FileStore) AddBot(ctx context.Context, b Bot) error {
	return s.update(ctx, func(doc *document) { doc.Bots = append(doc.Bots, b) })
}

// SetOwner replaces the owner record.
func (s *FileStore) SetOwner(ctx context.Context, o Owner) error {
	return s.update(ctx, func(doc *document) { doc.Owner = &o })
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) update(ctx context.Context, mutate func(*document)) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	mutate(&doc)
	return s.write(doc)
}

func (s *FileStore) read() (document, error) {
	var doc document
	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc, &StoreError{Op: "read", Err: err}
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, &StoreError{Op: "read", Err: fmt.Errorf("decode %s: %w", s.path, err)}
	}
	return doc, nil
}

func (s *FileStore) write(doc document) error {
	if doc.Users == nil {
		doc.Users = []User{}
	}
	if doc.Bots == nil {
		doc.Bots = []Bot{}
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(append(data, '\n'))
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmpName, s.path)
	}
	if werr != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Op: "write", Err: werr}
	}
	return nil
}
