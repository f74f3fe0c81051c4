package nmstate

import (
	"errors"
	"testing"
)

func TestMapErrorCoversTaxonomy(t *testing.T) {
	tests := []struct {
		kind string
		want Kind
	}{
		{"VerificationError", KindVerification},
		{"InvalidArgument", KindInvalidArgument},
		{"Bug", KindBug},
		{"PluginFailure", KindPluginFailure},
		{"NotImplementedError", KindNotImplemented},
		{"KernelIntegerRoundedError", KindKernelIntegerRounded},
		{"NotSupportedError", KindNotSupported},
		{"DependencyError", KindDependency},
		{"PermissionError", KindPermission},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			err := mapError(tt.kind, "details")
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("mapError returned %T", err)
			}
			if e.Kind != tt.want {
				t.Fatalf("kind = %q, want %q", e.Kind, tt.want)
			}
			if !e.Known() {
				t.Fatalf("kind %q not in the closed taxonomy", e.Kind)
			}
			if e.Message != "details" {
				t.Fatalf("message = %q, engine text must pass through unchanged", e.Message)
			}
		})
	}
}

func TestMapErrorPreservesUnknownKind(t *testing.T) {
	err := mapError("FutureEngineError", "something new")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("mapError returned %T", err)
	}
	if e.Kind != Kind("FutureEngineError") {
		t.Fatalf("unknown kind not preserved verbatim: %q", e.Kind)
	}
	if e.Known() {
		t.Fatal("unknown kind reported as known")
	}
	if got := e.Error(); got != "FutureEngineError: something new" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := mapError("PermissionError", "need CAP_NET_ADMIN")
	if !errors.Is(err, &Error{Kind: KindPermission}) {
		t.Fatal("kind-only target did not match")
	}
	if errors.Is(err, &Error{Kind: KindPermission, Message: "other"}) {
		t.Fatal("mismatched message matched")
	}
	if errors.Is(err, &Error{Kind: KindBug}) {
		t.Fatal("mismatched kind matched")
	}
	if !IsPermissionError(err) {
		t.Fatal("IsPermissionError missed a permission failure")
	}
	if IsDependencyError(err) {
		t.Fatal("IsDependencyError matched a permission failure")
	}
}

func TestKindOfNonTaxonomyError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain error) = %q, want empty", got)
	}
}
