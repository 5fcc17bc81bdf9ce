package extract

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()
	var root interface{}
	if err := decoder.Decode(&root); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return root
}

func TestLookupExactKey(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"user-id": "x"}`)
	value, ok := Lookup(root, "user-id")
	if !ok || value != "x" {
		t.Fatalf("expected x, got %v (ok=%v)", value, ok)
	}
}

func TestLookupHyphenFallback(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"user-id": "x"}`)
	value, ok := Lookup(root, "userid")
	if !ok || value != "x" {
		t.Fatalf("expected hyphen-stripped fallback to find x, got %v (ok=%v)", value, ok)
	}
}

func TestLookupNestedAndIndexed(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"data": {"items": [{"name": "first"}, {"name": "second"}]}}`)
	value, ok := Lookup(root, "data.items.1.name")
	if !ok || value != "second" {
		t.Fatalf("expected second, got %v (ok=%v)", value, ok)
	}
}

func TestLookupMissingPathIsAbsentNotError(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"user": {"name": "a"}}`)
	if _, ok := Lookup(root, "user.email"); ok {
		t.Fatalf("expected miss for absent leaf")
	}
	if _, ok := Lookup(root, "account.id"); ok {
		t.Fatalf("expected miss partway through the path")
	}
	if _, ok := Lookup(nil, "anything"); ok {
		t.Fatalf("expected miss on nil root")
	}
}

func TestFormatTruncatesLongStrings(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 60)
	formatted := Format(long, true)
	if formatted != strings.Repeat("a", 50)+"..." {
		t.Fatalf("unexpected truncation %q", formatted)
	}

	short := "0123456789"
	if got := Format(short, true); got != short {
		t.Fatalf("short string must pass through, got %q", got)
	}
}

func TestFormatAbsentIsUndefined(t *testing.T) {
	t.Parallel()

	if got := Format(nil, false); got != "undefined" {
		t.Fatalf("expected undefined, got %q", got)
	}
}

func TestFormatScalars(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"n": 42.5, "b": true, "z": null}`)
	n, _ := Lookup(root, "n")
	if got := Format(n, true); got != "42.5" {
		t.Fatalf("expected 42.5, got %q", got)
	}
	b, _ := Lookup(root, "b")
	if got := Format(b, true); got != "true" {
		t.Fatalf("expected true, got %q", got)
	}
	z, _ := Lookup(root, "z")
	if got := Format(z, true); got != "null" {
		t.Fatalf("expected null, got %q", got)
	}
}

func TestApplyFormatsForDisplay(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"token": "`+strings.Repeat("t", 60)+`", "user": {"name": "ada"}}`)
	rendered := Apply("hi $data.user.name token=$data.token missing=$data.nope", root)

	if !strings.Contains(rendered, "hi ada") {
		t.Fatalf("expected name substitution, got %q", rendered)
	}
	if !strings.Contains(rendered, strings.Repeat("t", 50)+"...") {
		t.Fatalf("expected truncated token, got %q", rendered)
	}
	if !strings.Contains(rendered, "missing=undefined") {
		t.Fatalf("expected undefined marker, got %q", rendered)
	}
}

func TestApplyRawKeepsFullValue(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("t", 60)
	root := decode(t, `{"token": "`+long+`"}`)

	if got := ApplyRaw("$data.token", root); got != long {
		t.Fatalf("raw extraction must not truncate, got %q", got)
	}
	if got := ApplyRaw("$data.nope", root); got != "" {
		t.Fatalf("raw miss must be empty, got %q", got)
	}
}
