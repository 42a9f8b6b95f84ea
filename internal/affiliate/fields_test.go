package affiliate

import (
	"errors"
	"testing"
	"time"
)

func TestFieldMap_Validate(t *testing.T) {
	fm := FieldMap{
		FieldUniqueID: "id",
		FieldStatus:   "status",
	}

	if err := fm.Validate("testnet", FieldUniqueID, FieldStatus); err != nil {
		t.Fatalf("Validate with complete map returned error: %v", err)
	}

	err := fm.Validate("testnet", FieldUniqueID, FieldAmount, FieldCurrency)
	if err == nil {
		t.Fatal("Validate with missing fields returned nil error")
	}
	var fmErr *FieldMapError
	if !errors.As(err, &fmErr) {
		t.Fatalf("error is %T, want *FieldMapError", err)
	}
	if len(fmErr.Missing) != 2 {
		t.Errorf("FieldMapError.Missing = %v, want 2 entries", fmErr.Missing)
	}
}

func TestFieldMap_String(t *testing.T) {
	fm := FieldMap{
		FieldUniqueID:   "id",
		FieldMerchantID: "program.id",
		FieldAmount:     "value.amount",
	}

	rec, err := DecodeRecord([]byte(`{
		"id": 9007199254740993,
		"program": {"id": 42, "name": "Shop"},
		"value": {"amount": "1234567"}
	}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	// Large integer ids must keep their exact digits (beyond float64).
	got, err := fm.String(rec, FieldUniqueID)
	if err != nil {
		t.Fatalf("String(uniqueId) error: %v", err)
	}
	if got != "9007199254740993" {
		t.Errorf("String(uniqueId) = %q, want %q", got, "9007199254740993")
	}

	// Dotted paths descend nested objects.
	got, err = fm.String(rec, FieldMerchantID)
	if err != nil {
		t.Fatalf("String(merchantId) error: %v", err)
	}
	if got != "42" {
		t.Errorf("String(merchantId) = %q, want %q", got, "42")
	}

	got, err = fm.String(rec, FieldAmount)
	if err != nil {
		t.Fatalf("String(amount) error: %v", err)
	}
	if got != "1234567" {
		t.Errorf("String(amount) = %q, want %q", got, "1234567")
	}

	// A field the map does not bind is an error for the required reader.
	if _, err := fm.String(rec, FieldCurrency); err == nil {
		t.Error("String on unbound field returned nil error")
	}
}

func TestFieldMap_OptionalString(t *testing.T) {
	fm := FieldMap{
		FieldInfo:     "info",
		FieldCustomID: "sub_id",
	}
	rec := Record{"info": nil}

	if got := fm.OptionalString(rec, FieldInfo); got != "" {
		t.Errorf("OptionalString on null = %q, want empty", got)
	}
	if got := fm.OptionalString(rec, FieldCustomID); got != "" {
		t.Errorf("OptionalString on absent key = %q, want empty", got)
	}
}

func TestFieldMap_Times(t *testing.T) {
	fm := FieldMap{
		FieldDate:       "date",
		FieldClickDate:  "click",
		FieldUpdateDate: "edit",
	}
	rec, err := DecodeRecord([]byte(`{
		"date": 1700000000,
		"click": "2023-11-14 22:13:20",
		"edit": "not a date"
	}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	got, err := fm.EpochTime(rec, FieldDate)
	if err != nil {
		t.Fatalf("EpochTime error: %v", err)
	}
	want := time.Unix(1700000000, 0).UTC()
	if !got.Equal(want) {
		t.Errorf("EpochTime = %v, want %v", got, want)
	}

	click := fm.OptionalTime(rec, FieldClickDate)
	if click.IsZero() {
		t.Error("OptionalTime on SQL-style datetime returned zero time")
	}

	// Unparseable optional date degrades to the explicit zero value.
	if edit := fm.OptionalTime(rec, FieldUpdateDate); !edit.IsZero() {
		t.Errorf("OptionalTime on junk = %v, want zero time", edit)
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	if _, err := DecodeRecord([]byte(`not json`)); err == nil {
		t.Error("DecodeRecord on junk returned nil error")
	}
}
