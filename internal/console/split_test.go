package console

import (
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  list  ", []string{"list"}},
		{`add "Team sync" https://x mon 09:00`, []string{"add", "Team sync", "https://x", "mon", "09:00"}},
		{`edit 1 name="A B" +time='fri 16:30'`, []string{"edit", "1", "name=A B", "+time=fri 16:30"}},
		{`add "" x`, []string{"add", "", "x"}},
		{`say "a \"quoted\" word"`, []string{"say", `a "quoted" word`}},
		{"tab\tseparated", []string{"tab", "separated"}},
	}
	for _, tc := range cases {
		got, err := splitArgs(tc.in)
		if err != nil {
			t.Fatalf("splitArgs(%q): %v", tc.in, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitArgs(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitArgsUnterminated(t *testing.T) {
	for _, in := range []string{`add "x`, `add 'x`, `x "\`} {
		if _, err := splitArgs(in); err == nil {
			t.Fatalf("splitArgs(%q) accepted", in)
		}
	}
}
