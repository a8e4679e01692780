package logger

import "fmt"

// Field keys shared by every bindkit package.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldEngineID  = "engine_id"
	FieldRegistry  = "registry"
	FieldSource    = "source"
	FieldOwner     = "owner"
	FieldTarget    = "target"
	FieldMember    = "member"
	FieldKind      = "kind"
	FieldCount     = "count"
)

// Fields pairs up alternating keys and values. A trailing key without a
// value is dropped.
//
//	log.Debug("member assigned", logger.Fields(logger.FieldMember, "Log"))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			key = fmt.Sprint(kvs[i])
		}
		m[key] = kvs[i+1]
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]any {
	return MergeWithError(map[string]any{FieldOperation: op}, err)
}

// MergeWithError sets the error field of fields, allocating the map when
// nil. A nil err leaves fields unchanged.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	if err != nil {
		fields[FieldError] = err.Error()
	}
	return fields
}
