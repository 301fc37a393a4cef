package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "punctuation and year", input: "Hello, World! 2024", want: "hello-world-2024"},
		{name: "leading and trailing noise", input: "  ---Leading/Trailing---  ", want: "leading-trailing"},
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "already a slug", input: "already-a-slug", want: "already-a-slug"},
		{name: "tabs and newlines", input: "hello\tworld\nagain", want: "hello-world-again"},
		{name: "version number", input: "Version 2.0.1", want: "version-2-0-1"},
		{name: "slashes", input: "Frontend/Backend | Full Stack", want: "frontend-backend-full-stack"},
		{name: "accented characters become separators", input: "Café Crème", want: "caf-cr-me"},
		{name: "underscore", input: "snake_case_title", want: "snake-case-title"},
		{name: "only symbols", input: "!@#$%^&*()", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "single character", input: "A", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	inputs := []string{"Hello, World! 2024", "  ---Leading/Trailing---  ", "Go 1.23 is out"}
	for _, in := range inputs {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNextFree(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		taken []string
		want  string
	}{
		{name: "free", base: "hello", taken: nil, want: "hello"},
		{name: "base taken", base: "hello", taken: []string{"hello"}, want: "hello-2"},
		{name: "several taken", base: "hello", taken: []string{"hello", "hello-2", "hello-3"}, want: "hello-4"},
		{name: "gap reused", base: "hello", taken: []string{"hello", "hello-3"}, want: "hello-2"},
		{name: "unrelated slugs ignored", base: "hello", taken: []string{"hello-world"}, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextFree(tt.base, tt.taken); got != tt.want {
				t.Errorf("NextFree(%q, %v) = %q, want %q", tt.base, tt.taken, got, tt.want)
			}
		})
	}
}
