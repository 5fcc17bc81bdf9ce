package manifest

import (
	"strings"
	"testing"

	"github.com/unkn0wn-root/restcmd/internal/errdef"
)

const sample = `
variables:
  base: https://api.example.com
headers:
  Authorization: Bearer $token
commands:
  "login <user> <pass>":
    description: Obtain an API token
    endpoint: POST $base/login
    body:
      username: $user
      password: $pass
    set:
      token: $data.token
  "whoami":
    endpoint: GET $base/me
    response: "You are $data.name"
  "greet [name]":
    response: "Hello $name"
`

func TestParseManifest(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Variables["base"] != "https://api.example.com" {
		t.Fatalf("unexpected variables %v", doc.Variables)
	}
	if doc.Headers["Authorization"] != "Bearer $token" {
		t.Fatalf("unexpected headers %v", doc.Headers)
	}

	login, ok := doc.Commands["login <user> <pass>"]
	if !ok {
		t.Fatalf("expected login command")
	}
	if login.Endpoint != "POST $base/login" {
		t.Fatalf("unexpected endpoint %q", login.Endpoint)
	}
	if login.Set["token"] != "$data.token" {
		t.Fatalf("unexpected set %v", login.Set)
	}
	if login.Body["username"] != "$user" {
		t.Fatalf("unexpected body %v", login.Body)
	}
}

func TestParseRequiresCommandsSection(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("variables:\n  a: b\n"))
	if err == nil {
		t.Fatalf("expected error for missing commands section")
	}
	if errdef.CodeOf(err) != errdef.CodeConfig {
		t.Fatalf("expected config error, got %v", errdef.CodeOf(err))
	}
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("commands: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateShapeAtLoadTime(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"body without endpoint":   "commands:\n  broken:\n    body:\n      a: b\n",
		"set without endpoint":    "commands:\n  broken:\n    set:\n      t: $data.t\n",
		"script without endpoint": "commands:\n  broken:\n    script: vars.set('a','b')\n",
		"nothing to run":          "commands:\n  broken:\n    description: only words\n",
	}
	for label, raw := range cases {
		_, err := Parse([]byte(raw))
		if err == nil {
			t.Fatalf("%s: expected error", label)
		}
		if !strings.Contains(err.Error(), "broken") {
			t.Fatalf("%s: error should name the command, got %q", label, err)
		}
	}
}

func TestCommandNamesSorted(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := doc.CommandNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
