package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/chatwidget/internal/config"
)

// resetFlags restores package-level flag state after a test
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		serverFlag, endpointFlag, fileFlag = "", "", ""
		verboseFlag, copyFlag = false, false
	})
}

func TestRootCommand_Metadata(t *testing.T) {
	if rootCmd.Use != "chatwidget [prompt]" {
		t.Errorf("Expected use 'chatwidget [prompt]', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" || rootCmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	if rootCmd.Args == nil {
		t.Error("Args validation should be configured")
	}

	want := map[string]bool{"chat": false, "serve": false, "config": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"server", "endpoint", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing global flag --%s", flag)
		}
	}
	for _, flag := range []string{"file", "copy", "version"} {
		if rootCmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing flag --%s", flag)
		}
	}
}

func TestReadPrompt(t *testing.T) {
	resetFlags(t)

	dir := t.TempDir()
	promptFile := filepath.Join(dir, "prompt.md")
	if err := os.WriteFile(promptFile, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		file    string
		args    []string
		reader  *strings.Reader
		want    string
		wantOK  bool
		wantErr bool
	}{
		{name: "file wins", file: promptFile, args: []string{"arg"}, reader: strings.NewReader("piped"), want: "from file", wantOK: true},
		{name: "missing file", file: filepath.Join(dir, "nope.md"), wantErr: true},
		{name: "piped stdin", args: []string{"arg"}, reader: strings.NewReader("piped"), want: "piped", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileFlag = tt.file
			got, ok, err := readPrompt(tt.args, tt.reader)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReadPrompt_ArgumentWhenStdinIsNil(t *testing.T) {
	resetFlags(t)

	got, ok, err := readPrompt([]string{"hello"}, nil)
	if err != nil || !ok || got != "hello" {
		t.Errorf("got (%q, %v, %v)", got, ok, err)
	}

	_, ok, _ = readPrompt(nil, nil)
	if ok {
		t.Error("expected no prompt without any source")
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHATWIDGET_SERVER_URL", "http://env:1")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://env:1" {
		t.Errorf("ServerURL = %q, want env override", cfg.ServerURL)
	}

	serverFlag = "http://flag:2/"
	endpointFlag = "chat"
	verboseFlag = true

	cfg, err = loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://flag:2" {
		t.Errorf("ServerURL = %q, want flag override", cfg.ServerURL)
	}
	if cfg.Endpoint != "/chat" {
		t.Errorf("Endpoint = %q, want /chat", cfg.Endpoint)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug with --verbose", cfg.LogLevel)
	}
	if got := cfg.ChatURL(); got != "http://flag:2/chat" {
		t.Errorf("ChatURL = %q", got)
	}
}

func TestNewClient(t *testing.T) {
	cfg := config.DefaultConfig()
	client, err := newClient(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if client.URL() != "http://localhost:3000/api/chat" {
		t.Errorf("URL = %q", client.URL())
	}

	cfg.ServerURL = "ftp://nope"
	_, err = newClient(cfg)
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	if !strings.Contains(err.Error(), "ftp://nope/api/chat") {
		t.Errorf("error should name the chat URL: %v", err)
	}
}

func TestVersionFlag(t *testing.T) {
	resetFlags(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		_ = rootCmd.Flags().Set("version", "false")
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "chatwidget "+Version) {
		t.Errorf("output = %q", out.String())
	}
}

func TestConfigCommands(t *testing.T) {
	resetFlags(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	rootCmd.SetArgs([]string{"config", "path"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	wantPath := filepath.Join(home, ".chatwidget", "config.json")
	if strings.TrimSpace(out.String()) != wantPath {
		t.Errorf("config path = %q, want %q", out.String(), wantPath)
	}

	out.Reset()
	rootCmd.SetArgs([]string{"config", "init"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	rootCmd.SetArgs([]string{"config", "init"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error when config already exists")
	}

	out.Reset()
	rootCmd.SetArgs([]string{"config", "--server", "http://example.test"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var cfg config.Config
	if err := json.Unmarshal(out.Bytes(), &cfg); err != nil {
		t.Fatalf("config output is not JSON: %v\n%s", err, out.String())
	}
	if cfg.ServerURL != "http://example.test" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
}
