package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

const (
	fileBarbers      = "barbers"
	fileServices     = "services"
	fileAppointments = "appointments"
	fileUsers        = "users"
)

// fileSet maps each collection to <dir>/<collection>/default.json.
type fileSet struct {
	dir string
}

func (f *fileSet) path(collection string) string {
	return filepath.Join(f.dir, collection, "default.json")
}

// userRecord keeps the password in the resource file; models.User hides
// it from API responses.
type userRecord struct {
	models.User
	Password string `json:"password"`
}

// Open loads a Store from dir. Missing files start empty and are created
// on the first write to that collection.
func Open(dir string) (*Store, error) {
	s := New()
	s.files = &fileSet{dir: dir}

	if err := s.files.load(fileBarbers, &s.barbers); err != nil {
		return nil, err
	}
	if err := s.files.load(fileServices, &s.services); err != nil {
		return nil, err
	}
	if err := s.files.load(fileAppointments, &s.appointments); err != nil {
		return nil, err
	}

	var users []userRecord
	if err := s.files.load(fileUsers, &users); err != nil {
		return nil, err
	}
	for _, r := range users {
		u := r.User
		u.PasswordHash = r.Password
		if u.Role == "" {
			u.Role = "user"
		}
		s.users = append(s.users, u)
	}

	for i := range s.barbers {
		s.barbers[i] = cloneBarber(s.barbers[i])
	}
	return s, nil
}

func (f *fileSet) load(collection string, dst any) error {
	data, err := os.ReadFile(f.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", collection, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (f *fileSet) save(collection string, v any) error {
	p := f.path(collection)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// commit writes next to the collection file and installs it in dst only
// after the write succeeded.
// It must run with the write lock held.
func commit[T any](s *Store, collection string, dst *[]T, next []T) error {
	if err := s.flush(collection, next); err != nil {
		return err
	}
	*dst = next
	return nil
}

// appended, replaced and removed never touch the backing array of cur.
func appended[T any](cur []T, v T) []T {
	return append(slices.Clip(cur), v)
}

func replaced[T any](cur []T, i int, v T) []T {
	next := slices.Clone(cur)
	next[i] = v
	return next
}

func removed[T any](cur []T, i int) []T {
	return slices.Delete(slices.Clone(cur), i, i+1)
}

func (s *Store) flush(collection string, v any) error {
	if s.files == nil {
		return nil
	}

	if users, ok := v.([]models.User); ok {
		records := make([]userRecord, len(users))
		for i, u := range users {
			records[i] = userRecord{User: u, Password: u.PasswordHash}
		}
		v = records
	}
	if err := s.files.save(collection, v); err != nil {
		return fmt.Errorf("persist %s: %w", collection, err)
	}
	return nil
}
