package affiliate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field names one slot of the canonical Transaction shape. A network's
// FieldMap binds each slot to that network's raw JSON key.
type Field string

const (
	FieldUniqueID      Field = "uniqueId"
	FieldMerchantID    Field = "merchantId"
	FieldMerchantName  Field = "merchantName"
	FieldDate          Field = "date"
	FieldClickDate     Field = "clickDate"
	FieldUpdateDate    Field = "updateDate"
	FieldCustomID      Field = "customId"
	FieldStatus        Field = "status"
	FieldCurrency      Field = "currency"
	FieldAmount        Field = "amount"
	FieldCommission    Field = "commission"
	FieldInfo          Field = "info"
	FieldStatusComment Field = "statusComment"
	FieldPaymentDate   Field = "paymentDate"
	FieldCategory      Field = "category"
	FieldLeadType      Field = "leadType"
	FieldAdspaceID     Field = "adspaceId"
)

// Record is one raw, already-validated API record. Numbers are decoded as
// json.Number so large ids and fixed-point amounts keep their exact
// digits.
type Record map[string]interface{}

// DecodeRecord parses one raw record body into a Record.
func DecodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("DecodeRecord: %w", err)
	}
	return rec, nil
}

// FieldMap is one network's table from canonical field to raw JSON key.
// Raw keys may be dotted paths ("commission.amount") to reach nested
// objects. Validate the map once at adapter construction so a network's
// schema drift surfaces as a typed *FieldMapError, not a missing-key
// crash mid-batch.
type FieldMap map[Field]string

// Validate checks that every required canonical field has a raw key bound.
func (fm FieldMap) Validate(network string, required ...Field) error {
	var missing []Field
	for _, f := range required {
		if fm[f] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &FieldMapError{Network: network, Missing: missing}
	}
	return nil
}

// lookup resolves a possibly-dotted raw key against a record.
func (fm FieldMap) lookup(rec Record, f Field) (interface{}, bool) {
	key := fm[f]
	if key == "" {
		return nil, false
	}
	var cur interface{} = map[string]interface{}(rec)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// String extracts a required string field. Numeric values are rendered
// with their exact digits, since several networks emit ids as JSON
// numbers.
func (fm FieldMap) String(rec Record, f Field) (string, error) {
	v, ok := fm.lookup(rec, f)
	if !ok {
		return "", fmt.Errorf("missing required field %q (raw key %q)", f, fm[f])
	}
	s, ok := stringValue(v)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string or number", f, v)
	}
	return s, nil
}

// OptionalString extracts a string field, defaulting to the explicit
// empty string when the key is absent or null.
func (fm FieldMap) OptionalString(rec Record, f Field) string {
	v, ok := fm.lookup(rec, f)
	if !ok {
		return ""
	}
	s, _ := stringValue(v)
	return s
}

// Int extracts a required integer field from a JSON number or a numeric
// string.
func (fm FieldMap) Int(rec Record, f Field) (int64, error) {
	v, ok := fm.lookup(rec, f)
	if !ok {
		return 0, fmt.Errorf("missing required field %q (raw key %q)", f, fm[f])
	}
	return intValue(v, f)
}

// EpochTime extracts a required Unix-seconds timestamp.
func (fm FieldMap) EpochTime(rec Record, f Field) (time.Time, error) {
	secs, err := fm.Int(rec, f)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Time extracts a required date/time field from one of the textual
// layouts affiliate APIs use.
func (fm FieldMap) Time(rec Record, f Field) (time.Time, error) {
	s, err := fm.String(rec, f)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTimeLoose(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", f, err)
	}
	return t, nil
}

// OptionalTime extracts a date/time field, defaulting to the zero time
// when the key is absent, null, or empty.
func (fm FieldMap) OptionalTime(rec Record, f Field) time.Time {
	s := fm.OptionalString(rec, f)
	if s == "" {
		return time.Time{}
	}
	t, err := parseTimeLoose(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// timeLayouts are tried in order. Affiliate APIs mix RFC 3339, SQL-style
// datetimes, and bare dates.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimeOrZero parses a textual date/time, defaulting to the zero time
// on empty or unrecognized input. For optional fields only; required
// dates go through FieldMap.Time, which surfaces the parse error.
func ParseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := parseTimeLoose(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimeLoose(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", s)
}

func stringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

func intValue(v interface{}, f Field) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", f, err)
		}
		return n, nil
	case float64:
		return int64(val), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", f, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want integer", f, v)
	}
}
