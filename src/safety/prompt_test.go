package safety_test

import (
	"bytes"
	"strings"
	"testing"

	"wrtcli/src/safety"
)

func TestConfirm_YesFlagSkipsPrompt(t *testing.T) {
	var out bytes.Buffer
	ok, err := safety.Confirm(safety.Options{Yes: true}, strings.NewReader(""), &out, "Proceed?")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !ok {
		t.Fatal("expected confirmation with --yes")
	}
	if out.Len() != 0 {
		t.Fatalf("no prompt should be written, got %q", out.String())
	}
}

func TestConfirm_Answers(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, c := range cases {
		var out bytes.Buffer
		ok, err := safety.Confirm(safety.Options{}, strings.NewReader(c.input), &out, "Proceed?")
		if err != nil {
			t.Fatalf("confirm(%q): %v", c.input, err)
		}
		if ok != c.want {
			t.Fatalf("confirm(%q) = %v, want %v", c.input, ok, c.want)
		}
	}
}
