package store

import (
	"database/sql"
	"testing"
)

func TestNullInt16ScanAndConvert(t *testing.T) {
	t.Parallel()

	var rating NullInt16
	if err := rating.Scan(int64(4)); err != nil {
		t.Fatalf("Scan(4): %v", err)
	}
	if !rating.Valid || rating.Value != 4 {
		t.Errorf("after Scan(4): %+v", rating)
	}
	if got, want := rating.NullInt16(), (sql.NullInt16{Int16: 4, Valid: true}); got != want {
		t.Errorf("NullInt16() = %+v, want %+v", got, want)
	}

	if err := rating.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if rating.Valid {
		t.Errorf("after Scan(nil): %+v, want invalid", rating)
	}
	if got := rating.NullInt16(); got.Valid {
		t.Errorf("NullInt16() = %+v, want invalid", got)
	}
}

func TestNullInt16JSON(t *testing.T) {
	t.Parallel()

	absent := NullInt16{}
	data, err := absent.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("absent rating marshals to %s, want null", data)
	}

	var set NullInt16
	if err := set.UnmarshalJSON([]byte("3")); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !set.Valid || set.Value != 3 {
		t.Errorf("after UnmarshalJSON(3): %+v", set)
	}
}
