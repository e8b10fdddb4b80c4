// Package session keeps the client's tokens between invocations in a JSON
// file readable only by the owner.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/bloombuddy/internal/filex"
)

const fileName = "session.json"

// ErrNoSession is returned by Load when nobody is logged in.
var ErrNoSession = errors.New("not logged in; run `bloombuddy login` first")

type Session struct {
	Server       string `json:"server"`
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Store reads and writes the session file inside a directory under the
// working directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store { return &Store{dir: dir} }

func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.AccessToken == "" && sess.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *Store) Save(sess *Session) error {
	dir, err := filex.EnsureSubDir(s.dir)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(filepath.Join(dir, fileName), data, 0o600)
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, fileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
