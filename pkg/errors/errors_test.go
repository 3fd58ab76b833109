package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidNewick, "bad branch length: %s", "abc")

	if got := err.Error(); got != "INVALID_NEWICK: bad branch length: abc" {
		t.Errorf("Error() = %q", got)
	}
	if err.Cause != nil {
		t.Error("New() should not set a cause")
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeStore, cause, "saving tree %s", "mammals")

	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, should include the cause", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should satisfy errors.Is on the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeTreeNotFound, "no such tree")

	if !Is(err, ErrCodeTreeNotFound) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodeCache) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeTreeNotFound) {
		t.Error("Is() should not match plain errors")
	}
	if Is(nil, ErrCodeTreeNotFound) {
		t.Error("Is(nil) should be false")
	}

	// Codes survive an extra layer of wrapping.
	outer := Wrap(ErrCodeStore, New(ErrCodeInvalidName, "bad name"), "saving")
	if GetCode(outer) != ErrCodeStore {
		t.Error("outermost code should win")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidFrame, "too small")); got != ErrCodeInvalidFrame {
		t.Errorf("GetCode() = %q, want INVALID_FRAME", got)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidNewick, "unexpected token at offset 4")
	if got := UserMessage(err); got != "unexpected token at offset 4" {
		t.Errorf("UserMessage() = %q, should drop the code prefix", got)
	}

	plain := stderrors.New("something broke")
	if got := UserMessage(plain); got != "something broke" {
		t.Errorf("UserMessage() on plain error = %q", got)
	}
}

func TestValidateTreeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "mammals", true},
		{"with dash and digits", "tree-42", true},
		{"with spaces", "great apes", true},
		{"unicode", "pöllöt", true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 129), false},
		{"max length ok", strings.Repeat("a", 128), true},
		{"control character", "bad\x00name", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"traversal", "..", false},
		{"embedded traversal", "a..b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTreeName(tt.input)
			if tt.valid && err != nil {
				t.Errorf("ValidateTreeName(%q) = %v, want nil", tt.input, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("ValidateTreeName(%q) = nil, want error", tt.input)
				}
				if !Is(err, ErrCodeInvalidName) {
					t.Errorf("ValidateTreeName(%q) code = %q, want INVALID_NAME", tt.input, GetCode(err))
				}
			}
		})
	}
}
