package repository

import "encoding/json"

// jsonDoc marshals a document-shaped value for storage in a JSON
// column.  A nil value is stored as an empty JSON document of the
// appropriate kind by the caller passing an initialized value instead.
func jsonDoc(v any) ([]byte, error) {
	return json.Marshal(v)
}

// scanDoc unmarshals a JSON column into dst.  NULL columns are treated
// as absent and leave dst untouched.
func scanDoc(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
