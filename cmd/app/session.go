package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

const (
	transportSocket = "uds"
	transportHTTP   = "http"

	defaultServer = "http://127.0.0.1:8080"
	defaultSocket = "/tmp/maranzalife.sock"
)

// session is what the CLI remembers between runs: how to reach the server,
// who is logged in and the last character and clock the server reported.
type session struct {
	Transport string `json:"transport"`
	Server    string `json:"server"`
	Socket    string `json:"socket"`
	Token     string `json:"token,omitempty"`
	Email     string `json:"email,omitempty"`

	Character string `json:"character,omitempty"`
	Day       int    `json:"day,omitempty"`
	Time      string `json:"time,omitempty"`
}

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".maranzalife", "session.json"), nil
}

// loadSession returns the stored session, or a fresh one on first run.
func loadSession() (session, error) {
	path, err := sessionPath()
	if err != nil {
		return session{}, err
	}
	var s session
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return session{}, err
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return session{}, err
		}
	}
	return s.withDefaults(), nil
}

func (s session) withDefaults() session {
	if s.Transport == "" {
		s.Transport = transportSocket
	}
	if s.Server == "" {
		s.Server = defaultServer
	}
	if s.Socket == "" {
		s.Socket = defaultSocket
	}
	return s
}

// save writes through a temp file so a crash never leaves half a session.
func (s session) save() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// observe records the clock and, when the reply carries one, the character.
func (s *session) observe(clock domain.GameClock, character *domain.Character) {
	s.Day = clock.Day
	s.Time = clock.Time
	if character != nil {
		s.Character = character.Name
	}
}

func (s *session) loggedIn(email, token string) {
	s.Email = email
	s.Token = token
	s.Character = ""
	s.Day = 0
	s.Time = ""
}

func (s *session) loggedOut() {
	s.loggedIn("", "")
}
