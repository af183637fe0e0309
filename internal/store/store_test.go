package store

import (
	"os"
	"path/filepath"
	"testing"

	logx "mcwatch/pkg/logx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "guilds.json"), logx.Nop())
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Guilds(); len(got) != 0 {
		t.Fatalf("Guilds = %v, want empty", got)
	}
}

func TestLoadCorruptFileDegradesToEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "guilds.json")
	if err := os.WriteFile(path, []byte(`{"g1": {"servers":`), 0o600); err != nil {
		t.Fatal(err)
	}
	s := New(path, logx.Nop())
	if err := s.Load(); err != nil {
		t.Fatalf("Load should degrade, not fail: %v", err)
	}
	if got := s.Guilds(); len(got) != 0 {
		t.Fatalf("Guilds = %v, want empty after corrupt load", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "guilds.json")
	s := New(path, logx.Nop())

	s.PutServer("g1", Server{
		Host:            "mc.example.com",
		ChannelID:       "123",
		Edition:         EditionJava,
		OnlineTemplate:  "Online | {online}/{max}",
		OfflineTemplate: "Offline | Server down",
	})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := New(path, logx.Nop())
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	servers := s2.Servers("g1")
	if len(servers) != 1 {
		t.Fatalf("Servers = %v, want 1 entry", servers)
	}
	srv := servers[0]
	if srv.Host != "mc.example.com" || srv.Port != DefaultJavaPort || srv.ChannelID != "123" {
		t.Fatalf("unexpected entry: %+v", srv)
	}
}

func TestSaveLeavesNoTempOnSuccess(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "guilds.json")
	s := New(path, logx.Nop())
	s.PutServer("g1", Server{Host: "a.example.com", ChannelID: "1", Edition: EditionJava})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSaveSurvivesTornTempWrite(t *testing.T) {
	t.Parallel()
	// A crash between writing the temp file and renaming it must leave the
	// previous durable document readable.
	path := filepath.Join(t.TempDir(), "guilds.json")
	s := New(path, logx.Nop())
	s.PutServer("g1", Server{Host: "a.example.com", ChannelID: "1", Edition: EditionJava})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Simulate a torn write of the next snapshot.
	if err := os.WriteFile(path+".tmp", []byte(`{"g1": {"ser`), 0o600); err != nil {
		t.Fatal(err)
	}

	s2 := New(path, logx.Nop())
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s2.Servers("g1"); len(got) != 1 {
		t.Fatalf("Servers = %v, want previous snapshot intact", got)
	}
}

func TestRemoveServerEmptiesGuild(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.PutServer("g1", Server{Host: "a.example.com", ChannelID: "1", Edition: EditionJava})
	s.PutServer("g1", Server{Host: "b.example.com", ChannelID: "2", Edition: EditionBedrock})

	removed, empty := s.RemoveServer("g1", "a.example.com")
	if !removed || empty {
		t.Fatalf("RemoveServer(a) = (%v, %v), want (true, false)", removed, empty)
	}
	removed, empty = s.RemoveServer("g1", "b.example.com")
	if !removed || !empty {
		t.Fatalf("RemoveServer(b) = (%v, %v), want (true, true)", removed, empty)
	}
	if got := s.Guilds(); len(got) != 0 {
		t.Fatalf("Guilds = %v, want empty after last removal", got)
	}

	removed, _ = s.RemoveServer("g1", "b.example.com")
	if removed {
		t.Fatal("second removal should report not found")
	}
}

func TestPutServerDefaultsPortByEdition(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.PutServer("g1", Server{Host: "j.example.com", Edition: EditionJava})
	s.PutServer("g1", Server{Host: "b.example.com", Edition: EditionBedrock})

	for _, srv := range s.Servers("g1") {
		want := DefaultJavaPort
		if srv.Edition == EditionBedrock {
			want = DefaultBedrockPort
		}
		if srv.Port != want {
			t.Fatalf("port for %s = %d, want %d", srv.Host, srv.Port, want)
		}
	}
}

func TestParseEdition(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Edition
		ok   bool
	}{
		{"", EditionJava, true},
		{"java", EditionJava, true},
		{"Bedrock", EditionBedrock, true},
		{"pe", EditionBedrock, true},
		{"forge", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseEdition(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseEdition(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
