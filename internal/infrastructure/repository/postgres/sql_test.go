package postgres

import (
	"database/sql"
	"testing"
)

func TestOptionalString(t *testing.T) {
	t.Parallel()

	if got := optionalString("  "); got != nil {
		t.Fatalf("blank value must map to nil, got %q", *got)
	}
	got := optionalString(" abc ")
	if got == nil || *got != "abc" {
		t.Fatalf("value must be trimmed, got %v", got)
	}
}

func TestNullInt64Conversions(t *testing.T) {
	t.Parallel()

	if got := nullInt64ToIntPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("invalid null must map to nil, got %d", *got)
	}
	got := nullInt64ToIntPtr(sql.NullInt64{Int64: 3, Valid: true})
	if got == nil || *got != 3 {
		t.Fatalf("valid null must map to pointer, got %v", got)
	}

	if back := intPtrToNullInt64(got); !back.Valid || back.Int64 != 3 {
		t.Fatalf("pointer must map back to valid null, got %+v", back)
	}
	if back := intPtrToNullInt64(nil); back.Valid {
		t.Fatalf("nil pointer must map to invalid null, got %+v", back)
	}
}

func TestMarshalStats(t *testing.T) {
	t.Parallel()

	got, err := marshalStats(nil)
	if err != nil {
		t.Fatalf("marshal nil stats: %v", err)
	}
	if got != "{}" {
		t.Fatalf("nil stats must marshal to empty object, got %q", got)
	}

	got, err = marshalStats(map[string]any{"created": 2})
	if err != nil {
		t.Fatalf("marshal stats: %v", err)
	}
	if got != `{"created":2}` {
		t.Fatalf("unexpected stats payload: %s", got)
	}
}
