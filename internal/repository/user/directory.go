// Package user answers whether a user id is known. Accounts are managed
// elsewhere; this service only reads a directory file of them.
package user

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"todoTracker/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type User struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type file struct {
	Users []User `yaml:"users"`
}

// Directory is an in-memory set of users. The zero value knows nobody.
type Directory struct {
	mtx   sync.RWMutex
	users map[string]User
	open  bool
}

func NewDirectory(users ...User) *Directory {
	d := &Directory{users: make(map[string]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// NewOpenDirectory accepts every non-blank id. It is used when no
// directory file is configured.
func NewOpenDirectory() *Directory {
	return &Directory{users: map[string]User{}, open: true}
}

// Load reads a YAML file of the form
//
//	users:
//	  - id: u1
//	    name: Ann
func Load(path string) (*Directory, error) {
	d := NewDirectory()
	if err := d.Reload(path); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload replaces the directory contents with the file's. On error the
// current contents are kept.
func (d *Directory) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading user directory: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parsing user directory %s: %w", path, err)
	}

	users := make(map[string]User, len(f.Users))
	for i, u := range f.Users {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			return fmt.Errorf("user directory %s: entry %d has no id", path, i)
		}
		if _, dup := users[id]; dup {
			return fmt.Errorf("user directory %s: duplicate id %q", path, id)
		}
		u.ID = id
		users[id] = u
	}

	d.mtx.Lock()
	d.users = users
	d.mtx.Unlock()

	logger.Info("Repository: user directory loaded", zap.String("path", path), zap.Int("users", len(users)))
	return nil
}

func (d *Directory) Exists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}

	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if d.open {
		return true, nil
	}
	_, ok := d.users[userID]
	return ok, nil
}

func (d *Directory) Get(userID string) (User, bool) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	u, ok := d.users[userID]
	return u, ok
}
