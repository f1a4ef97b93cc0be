package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	if meta := MetadataFor(CodeNotFound); meta.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected status for not found: %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(CodeInsufficientStock); meta.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected status for insufficient stock: %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(Code("nope")); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should fall back to internal, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("boom")
	err := Wrap(CodePersistence, cause, "create order")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to the cause")
	}
	if err.Code() != CodePersistence {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	inner := New(CodeInvalidCart, "cart is empty")
	outer := fmt.Errorf("handling message: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeInvalidCart {
		t.Fatalf("expected typed error through wrapping, got %v", typed)
	}
	if !IsCode(outer, CodeInvalidCart) {
		t.Fatal("IsCode should match through wrapping")
	}
}

func TestDumpChain(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("connection refused")
	err := fmt.Errorf("send text: %w", Wrap(CodeTransport, cause, "evolution api"))

	dump := Dump(err)
	if dump.Code != string(CodeTransport) {
		t.Fatalf("unexpected code: %s", dump.Code)
	}
	if len(dump.Chain) < 3 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}
