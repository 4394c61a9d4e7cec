package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(ErrCodeParseSyntax, "unknown keyword %q", "hazard")
	if !strings.Contains(e.Error(), "PARSE_SYNTAX") {
		t.Errorf("Error() missing code: %q", e.Error())
	}
	if !strings.Contains(e.Error(), `"hazard"`) {
		t.Errorf("Error() missing detail: %q", e.Error())
	}

	at := NewAt(ErrCodeParseName, 7, "empty name")
	if !strings.Contains(at.Error(), "line 7") {
		t.Errorf("NewAt Error() missing line: %q", at.Error())
	}
	if at.Line != 7 {
		t.Errorf("Line = %d", at.Line)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	e := Wrap(ErrCodeInternal, cause, "write artifact")

	if !stderrors.Is(e, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !strings.Contains(e.Error(), "disk full") {
		t.Errorf("Error() missing cause: %q", e.Error())
	}
}

func TestIsAndGetCode(t *testing.T) {
	e := New(ErrCodeNotFound, "missing")

	if !Is(e, ErrCodeNotFound) {
		t.Error("Is should match the code")
	}
	if Is(e, ErrCodeInternal) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeNotFound) {
		t.Error("Is should not match plain errors")
	}

	// Codes survive wrapping with fmt.Errorf %w.
	wrapped := fmt.Errorf("stage: %w", e)
	if GetCode(wrapped) != ErrCodeNotFound {
		t.Errorf("GetCode(wrapped) = %v", GetCode(wrapped))
	}
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
}

func TestUserMessage(t *testing.T) {
	at := NewAt(ErrCodeParseSyntax, 3, "bad record")
	if UserMessage(at) != "line 3: bad record" {
		t.Errorf("UserMessage = %q", UserMessage(at))
	}
	if strings.Contains(UserMessage(at), "PARSE_SYNTAX") {
		t.Error("UserMessage should not include the code")
	}
	plain := stderrors.New("plain")
	if UserMessage(plain) != "plain" {
		t.Errorf("UserMessage(plain) = %q", UserMessage(plain))
	}
}

func TestIssues(t *testing.T) {
	issues := Issues{
		NewAt(ErrCodeValidationDuplicateNode, 2, `duplicate cause "A"`),
		NewAt(ErrCodeValidationUnresolvedTarget, 5, `target "Ghost" not found`),
	}

	if !issues.Has(ErrCodeValidationDuplicateNode) {
		t.Error("Has missed a present code")
	}
	if issues.Has(ErrCodeValidationAmbiguousTarget) {
		t.Error("Has matched an absent code")
	}

	codes := issues.Codes()
	if len(codes) != 2 || codes[0] != ErrCodeValidationDuplicateNode {
		t.Errorf("Codes = %v", codes)
	}

	msg := issues.Error()
	if !strings.Contains(msg, "2 validation issue(s)") {
		t.Errorf("Error() = %q", msg)
	}
	if !strings.Contains(msg, "Ghost") {
		t.Errorf("Error() missing second issue: %q", msg)
	}
}

func TestAsIssues(t *testing.T) {
	issues := Issues{New(ErrCodeValidationDuplicateNode, "dup")}

	var err error = issues
	got, ok := AsIssues(err)
	if !ok || len(got) != 1 {
		t.Fatalf("AsIssues = %v, %v", got, ok)
	}

	if _, ok := AsIssues(New(ErrCodeParseSyntax, "bad")); ok {
		t.Error("AsIssues matched a single *Error")
	}
	if _, ok := AsIssues(stderrors.New("plain")); ok {
		t.Error("AsIssues matched a plain error")
	}
}
