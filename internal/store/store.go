package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	logx "mcwatch/pkg/logx"
)

var ErrNotFound = errors.New("server not found")

// Store owns the in-memory guild configuration and its durable JSON snapshot.
//
// Reads (Servers, Guilds) are safe from any goroutine. Mutations and Save are
// expected to be serialized by the caller (all of them funnel through the
// command layer one interaction at a time).
type Store struct {
	path string
	log  logx.Logger

	mu     sync.RWMutex
	guilds map[string]GuildConfig
}

func New(path string, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{path: path, log: log, guilds: map[string]GuildConfig{}}
}

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Load reads the durable snapshot into memory.
//
// A missing file is not an error: monitoring simply starts empty. A corrupt
// file degrades the same way (empty map) with a warning, rather than taking
// the whole bot down.
func (s *Store) Load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.guilds = map[string]GuildConfig{}
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	var guilds map[string]GuildConfig
	if err := json.Unmarshal(b, &guilds); err != nil {
		s.log.Warn("guild config unreadable; starting empty",
			logx.String("path", s.path), logx.Err(err))
		guilds = map[string]GuildConfig{}
	}
	if guilds == nil {
		guilds = map[string]GuildConfig{}
	}

	s.mu.Lock()
	s.guilds = guilds
	s.mu.Unlock()
	return nil
}

// Save persists the full snapshot durably.
//
// Strategy: serialize, write to a temp file next to the target, then rename
// over the target. Rename on the same filesystem is atomic, so a crash during
// Save leaves either the old document or the new one, never a torn write.
// If the rename fails (some filesystems), fall back to one direct overwrite.
func (s *Store) Save() error {
	s.mu.RLock()
	b, err := json.MarshalIndent(s.guilds, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal guild config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Warn("atomic rename failed; attempting direct write",
			logx.String("path", s.path), logx.Err(err))
		_ = os.Remove(tmp)
		if werr := os.WriteFile(s.path, b, 0o600); werr != nil {
			return fmt.Errorf("save %s: %w", s.path, werr)
		}
	}
	return nil
}

// Servers returns a copy of the guild's server entries, sorted by host.
// The copy is safe to iterate while the command layer mutates the store.
func (s *Store) Servers(guildID string) []Server {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gc, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]Server, 0, len(gc.Servers))
	for host, srv := range gc.Servers {
		srv.Host = host
		out = append(out, srv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}

// Server returns one entry by host, with Host filled in.
func (s *Store) Server(guildID, host string) (Server, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gc, ok := s.guilds[guildID]
	if !ok {
		return Server{}, false
	}
	srv, ok := gc.Servers[host]
	if !ok {
		return Server{}, false
	}
	srv.Host = host
	return srv, true
}

// Guilds returns the IDs of all guilds with at least one server.
func (s *Store) Guilds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.guilds))
	for id, gc := range s.guilds {
		if len(gc.Servers) > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// PutServer upserts one server entry, creating the guild on first use.
// Port 0 resolves to the edition default.
func (s *Store) PutServer(guildID string, srv Server) {
	if srv.Port <= 0 {
		srv.Port = srv.Edition.DefaultPort()
	}
	host := srv.Host
	srv.Host = ""

	s.mu.Lock()
	defer s.mu.Unlock()

	gc, ok := s.guilds[guildID]
	if !ok || gc.Servers == nil {
		gc = GuildConfig{Servers: map[string]Server{}}
	}
	gc.Servers[host] = srv
	s.guilds[guildID] = gc
}

// RemoveServer deletes one server entry. It reports whether the entry existed
// and whether the guild is now empty (and therefore removed from the map).
func (s *Store) RemoveServer(guildID, host string) (removed, guildEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gc, ok := s.guilds[guildID]
	if !ok {
		return false, false
	}
	if _, ok := gc.Servers[host]; !ok {
		return false, false
	}
	delete(gc.Servers, host)
	if len(gc.Servers) == 0 {
		delete(s.guilds, guildID)
		return true, true
	}
	s.guilds[guildID] = gc
	return true, false
}
