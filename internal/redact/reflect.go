package redact

import "reflect"

// reflectMapPointer extracts the underlying map header pointer so recursive
// redaction can detect a map that references itself.
func reflectMapPointer(m map[string]interface{}) uintptr {
	if m == nil {
		return 0
	}
	return reflect.ValueOf(m).Pointer()
}
