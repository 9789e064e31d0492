package introspect

import "fmt"

// Firebird RDB$FIELDS.RDB$FIELD_TYPE codes.
const (
	fieldSmallint    int16 = 7
	fieldInteger     int16 = 8
	fieldFloat       int16 = 10
	fieldDate        int16 = 12
	fieldTime        int16 = 13
	fieldChar        int16 = 14
	fieldBigint      int16 = 16
	fieldBoolean     int16 = 23
	fieldDecfloat16  int16 = 24
	fieldDecfloat34  int16 = 25
	fieldInt128      int16 = 26
	fieldDouble      int16 = 27
	fieldTimeTZ      int16 = 28
	fieldTimestampTZ int16 = 29
	fieldTimestamp   int16 = 35
	fieldVarchar     int16 = 37
	fieldBlob        int16 = 261
)

var fixedTypes = map[int16]string{
	fieldSmallint:    "SMALLINT",
	fieldInteger:     "INTEGER",
	fieldFloat:       "FLOAT",
	fieldDate:        "DATE",
	fieldTime:        "TIME",
	fieldBoolean:     "BOOLEAN",
	fieldDecfloat16:  "DECFLOAT(16)",
	fieldDecfloat34:  "DECFLOAT(34)",
	fieldInt128:      "INT128",
	fieldDouble:      "DOUBLE PRECISION",
	fieldTimeTZ:      "TIME WITH TIME ZONE",
	fieldTimestampTZ: "TIMESTAMP WITH TIME ZONE",
	fieldTimestamp:   "TIMESTAMP",
	fieldBlob:        "BLOB",
}

// MapFieldType renders a catalog field descriptor as a SQL type.
// charLength is RDB$CHARACTER_LENGTH and may be nil; string lengths fall back
// to fieldLength then.
func MapFieldType(fieldType, fieldLength int16, charLength *int16, precision, scale int16) (string, error) {
	if t, ok := fixedTypes[fieldType]; ok {
		return t, nil
	}

	switch fieldType {
	case fieldChar:
		return fmt.Sprintf("CHAR(%d)", stringLength(fieldLength, charLength)), nil
	case fieldVarchar:
		return fmt.Sprintf("VARCHAR(%d)", stringLength(fieldLength, charLength)), nil
	case fieldBigint:
		if scale == 0 {
			return "BIGINT", nil
		}
		if scale < 0 {
			scale = -scale
		}
		return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale), nil
	}

	return "", &UnsupportedTypeError{Code: fieldType}
}

func stringLength(fieldLength int16, charLength *int16) int16 {
	if charLength != nil {
		return *charLength
	}
	return fieldLength
}
