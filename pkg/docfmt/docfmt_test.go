package docfmt

import (
	"strings"
	"testing"
)

type doc struct {
	Version int      `json:"version"`
	Names   []string `json:"names"`
	Clock   string   `json:"clock"`
}

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"a.json": JSON,
		"a.YAML": YAML,
		"a.yml":  YAML,
		"a":      JSON,
	}
	for path, want := range cases {
		if got := Format(path); got != want {
			t.Fatalf("Format(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	in := doc{Version: 1, Names: []string{"a", "b c"}, Clock: "09:00"}
	b, err := Encode("x.yaml", in)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "{") {
		t.Fatalf("expected block style YAML, got:\n%s", b)
	}

	var out doc
	if err := DecodeStrict("x.yaml", b, &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, b)
	}
	if out.Version != 1 || len(out.Names) != 2 || out.Names[1] != "b c" || out.Clock != "09:00" {
		t.Fatalf("round trip = %+v", out)
	}
}

func TestDecodeStrictRejectsUnknownAndTrailing(t *testing.T) {
	var out doc
	if err := DecodeStrict("x.json", []byte(`{"version":1,"bogus":true}`), &out); err == nil {
		t.Fatal("unknown field accepted")
	}
	if err := DecodeStrict("x.json", []byte(`{"version":1}{"version":2}`), &out); err == nil {
		t.Fatal("trailing document accepted")
	}
	if err := DecodeStrict("x.yml", []byte("version: 2\nnames: [x]\n"), &out); err != nil || out.Version != 2 {
		t.Fatalf("yaml decode = %+v, %v", out, err)
	}
}

func TestEmptyYAMLDecodesAsEmptyObject(t *testing.T) {
	var out doc
	if err := DecodeStrict("x.yaml", nil, &out); err != nil {
		t.Fatalf("empty yaml: %v", err)
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte("version: 1\n"))
	if a != Hash([]byte("version: 1\n")) {
		t.Fatal("hash is not stable")
	}
	if a == Hash([]byte("version: 2\n")) {
		t.Fatal("different content hashed equal")
	}
	// fnv-1a offset basis
	if got := Hash(nil); got != 0xcbf29ce484222325 {
		t.Fatalf("Hash(nil) = %#x", got)
	}
}
