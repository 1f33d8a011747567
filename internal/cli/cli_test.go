package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a config that keeps all state under a temp dir and
// returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
store:
  dir: %s
audit:
  path: %s
  enabled: true
joins: ["#general"]
%s`, filepath.Join(dir, "store"), filepath.Join(dir, "audit.jsonl"), extra)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	root, e := newRoot()
	var out, errb bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetArgs(args)
	code = execute(context.Background(), root, e)
	return out.String(), errb.String(), code
}

func TestRun(t *testing.T) {
	cfg := writeConfig(t, "")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"single argument", []string{"echo a b | count"}, "1\n"},
		{"joined arguments", []string{"echo", "a", "b", "|", "count"}, "1\n"},
		{"quoted", []string{`echo "x  y"`}, "x  y\n"},
		{"no output", []string{"cat"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfg, "run"}, tt.args...)
			stdout, stderr, code := runCmd(t, "", args...)
			if code != 0 {
				t.Fatalf("exit %d, stderr: %s", code, stderr)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestRunFailure(t *testing.T) {
	cfg := writeConfig(t, "")
	stdout, stderr, code := runCmd(t, "", "--config", cfg, "run", "echo hi | nosuch")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, `pipesh: stage 2: unknown command: "nosuch"`) {
		t.Errorf("stderr = %q", stderr)
	}

	_, _, code = runCmd(t, "", "--config", cfg, "run")
	if code == 0 {
		t.Error("expected usage error with no line")
	}
}

func TestVariablesPersist(t *testing.T) {
	cfg := writeConfig(t, "")
	if _, stderr, code := runCmd(t, "", "--config", cfg, "run", "set greeting hello there"); code != 0 {
		t.Fatalf("set: exit %d, stderr: %s", code, stderr)
	}
	stdout, stderr, code := runCmd(t, "", "--config", cfg, "run", "get greeting")
	if code != 0 {
		t.Fatalf("get: exit %d, stderr: %s", code, stderr)
	}
	if stdout != "hello there\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestWriteTierDisabled(t *testing.T) {
	cfg := writeConfig(t, "tiers:\n  write: false\n")
	_, stderr, code := runCmd(t, "", "--config", cfg, "run", "set x y")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "stage 1: set:") {
		t.Errorf("stderr = %q", stderr)
	}

	stdout, _, code := runCmd(t, "", "--config", cfg, "list", "--tier", "write")
	if code != 0 {
		t.Fatalf("list exit %d", code)
	}
	if !strings.Contains(stdout, "write*") {
		t.Errorf("disabled tier not marked:\n%s", stdout)
	}
}

func TestList(t *testing.T) {
	cfg := writeConfig(t, "")
	stdout, _, code := runCmd(t, "", "--config", cfg, "list")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, name := range []string{"cat", "count", "echo", "eval", "greet", "help", "jq", "get", "set", "del", "keys"} {
		if !strings.Contains(stdout, name+" ") {
			t.Errorf("list missing %s:\n%s", name, stdout)
		}
	}

	stdout, _, _ = runCmd(t, "", "--config", cfg, "list", "--tier", "write")
	if strings.Contains(stdout, "echo") || !strings.Contains(stdout, "set") {
		t.Errorf("tier filter:\n%s", stdout)
	}

	_, stderr, code := runCmd(t, "", "--config", cfg, "list", "--tier", "bogus")
	if code != 1 || !strings.Contains(stderr, "pipesh:") {
		t.Errorf("bad tier: exit %d, stderr %q", code, stderr)
	}
}

func TestAudit(t *testing.T) {
	cfg := writeConfig(t, "")
	runCmd(t, "", "--config", cfg, "run", "echo one")
	runCmd(t, "", "--config", cfg, "run", "nosuch")

	stdout, _, code := runCmd(t, "", "--config", cfg, "audit", "verify")
	if code != 0 || !strings.Contains(stdout, "integrity verified") {
		t.Fatalf("verify: exit %d, stdout %q", code, stdout)
	}

	stdout, _, code = runCmd(t, "", "--config", cfg, "audit", "tail", "-n", "1")
	if code != 0 {
		t.Fatalf("tail: exit %d", code)
	}
	if !strings.Contains(stdout, `"line": "nosuch"`) || strings.Contains(stdout, `"line": "echo one"`) {
		t.Errorf("tail -n 1:\n%s", stdout)
	}
}

func TestServeStdio(t *testing.T) {
	cfg := writeConfig(t, "")
	stdin := strings.Join([]string{
		"alice #general #echo hi",
		"bob #general just chatting",
		"alice pipesh #count a b",
		"carol #general #nosuch",
	}, "\n") + "\n"

	stdout, stderr, code := runCmd(t, stdin, "--config", cfg, "serve")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{
		"JOIN #general\n",
		"#general alice: hi\n",
		"alice alice: 2\n",
		`#general carol: error: stage 1: unknown command: "nosuch"` + "\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "bob") {
		t.Errorf("replied to a message without the leader:\n%s", stdout)
	}
}

func TestServeLeaderVariable(t *testing.T) {
	cfg := writeConfig(t, "")
	if _, stderr, code := runCmd(t, "", "--config", cfg, "run", "set leader !"); code != 0 {
		t.Fatalf("set leader: %s", stderr)
	}
	stdout, _, code := runCmd(t, "alice #c #echo old\nalice #c !echo new\n", "--config", cfg, "serve")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if strings.Contains(stdout, "old") || !strings.Contains(stdout, "#c alice: new\n") {
		t.Errorf("stdout:\n%s", stdout)
	}
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`leader: ""`), 0644); err != nil {
		t.Fatal(err)
	}
	_, stderr, code := runCmd(t, "", "--config", path, "run", "echo x")
	if code != 1 || !strings.Contains(stderr, "pipesh: config:") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCmd(t, "", "--config", "/nonexistent/config.yaml", "version")
	if code != 0 || stdout != "pipesh dev\n" {
		t.Errorf("exit %d, stdout %q", code, stdout)
	}
}

func TestConfigRules(t *testing.T) {
	cfg := writeConfig(t, "rules:\n  eval:\n    deny: true\n")
	_, stderr, code := runCmd(t, "", "--config", cfg, "run", "echo 1 | eval")
	if code != 1 || !strings.Contains(stderr, "stage 2: eval is denied by config") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}

	_, stderr, code = runCmd(t, "", "--config", cfg, "run", `set leader ""`)
	if code != 1 || !strings.Contains(stderr, "blank leader") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
}
