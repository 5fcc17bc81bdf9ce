package cmdspec

import (
	"reflect"
	"testing"

	"github.com/unkn0wn-root/restcmd/internal/manifest"
)

func TestParseParentWithArguments(t *testing.T) {
	t.Parallel()

	spec, err := Parse("login <user> <pass>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Parent != "login" {
		t.Fatalf("expected parent login, got %q", spec.Parent)
	}
	if spec.Sub != "" {
		t.Fatalf("expected no subcommand, got %q", spec.Sub)
	}
	if !reflect.DeepEqual(spec.Required, []string{"user", "pass"}) {
		t.Fatalf("unexpected required args %v", spec.Required)
	}
}

func TestParseSubcommandKeepsOwnArguments(t *testing.T) {
	t.Parallel()

	spec, err := Parse("get item <id> [format]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Parent != "get" || spec.Sub != "item" {
		t.Fatalf("unexpected parent/sub %q/%q", spec.Parent, spec.Sub)
	}
	if !reflect.DeepEqual(spec.Required, []string{"id"}) {
		t.Fatalf("unexpected required args %v", spec.Required)
	}
	if !reflect.DeepEqual(spec.Optional, []string{"format"}) {
		t.Fatalf("unexpected optional args %v", spec.Optional)
	}
}

func TestParseMultiWordSubcommand(t *testing.T) {
	t.Parallel()

	spec, err := Parse("remote branch list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Parent != "remote" || spec.Sub != "branch list" {
		t.Fatalf("unexpected parent/sub %q/%q", spec.Parent, spec.Sub)
	}
}

func TestParseRejectsBadGrammar(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":                    "",
		"mandatory after optional": "cp [dest] <src>",
		"duplicate argument":       "mv <path> <path>",
		"word after arguments":     "get <id> list",
		"half bracket":             "get <id",
		"empty argument name":      "get <>",
	}
	for label, name := range cases {
		if _, err := Parse(name); err == nil {
			t.Fatalf("%s: expected error for %q", label, name)
		}
	}
}

func TestBindArgs(t *testing.T) {
	t.Parallel()

	spec, err := Parse("get item <id> [format]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bound, err := spec.BindArgs([]string{"42", "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound["id"] != "42" || bound["format"] != "json" {
		t.Fatalf("unexpected binding %v", bound)
	}

	bound, err = spec.BindArgs([]string{"42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := bound["format"]; present {
		t.Fatalf("omitted optional should be absent, got %v", bound)
	}

	if _, err := spec.BindArgs(nil); err == nil {
		t.Fatalf("expected error for missing mandatory argument")
	}
	if _, err := spec.BindArgs([]string{"a", "b", "c"}); err == nil {
		t.Fatalf("expected error for extra argument")
	}
}

func TestGroupMergesParents(t *testing.T) {
	t.Parallel()

	doc := &manifest.Document{Commands: map[string]manifest.Definition{
		"get <id>": {Response: "one $id"},
		"get list": {Response: "all"},
	}}

	tree, err := Group(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("expected one parent, got %d", len(tree))
	}

	get := tree["get"]
	if get == nil || !get.Runnable {
		t.Fatalf("expected runnable parent get")
	}
	if !reflect.DeepEqual(get.Spec.Required, []string{"id"}) {
		t.Fatalf("parent should keep its own arguments, got %v", get.Spec.Required)
	}

	list := get.Subs["list"]
	if list == nil || !list.Runnable {
		t.Fatalf("expected runnable subcommand list")
	}
	if len(list.Spec.Required) != 0 || len(list.Spec.Optional) != 0 {
		t.Fatalf("subcommand list should have no arguments")
	}
}

func TestGroupSubOnlyParentIsNotRunnable(t *testing.T) {
	t.Parallel()

	doc := &manifest.Document{Commands: map[string]manifest.Definition{
		"remote list": {Response: "remotes"},
	}}

	tree, err := Group(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remote := tree["remote"]
	if remote == nil {
		t.Fatalf("expected parent remote")
	}
	if remote.Runnable {
		t.Fatalf("parent without its own definition must not be runnable")
	}
	if remote.Subs["list"] == nil {
		t.Fatalf("expected subcommand list")
	}
}

func TestGroupRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := Group(&manifest.Document{Commands: map[string]manifest.Definition{
		"login <user>":  {Response: "a"},
		"login <token>": {Response: "b"},
	}})
	if err == nil {
		t.Fatalf("expected error for duplicate parent definitions")
	}
}
