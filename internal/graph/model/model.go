// Package model holds the upstream entities as they are decoded from JSON.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ID is an upstream identifier. The upstream sends numbers; GraphQL IDs are strings,
// so both JSON numbers and strings are accepted. Numbers keep their exact digits.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch n := v.(type) {
	case json.Number:
		*id = ID(n.String())
		return nil
	case string, nil:
	default:
		return fmt.Errorf("id: unsupported JSON value %s", data)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

// MissingFieldsError reports required keys that an upstream object lacks or sets to null.
type MissingFieldsError struct {
	Type   string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: missing required fields %s", e.Type, strings.Join(e.Fields, ", "))
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

// requireKeys checks that data is an object holding a non-null value for every key.
func requireKeys(typeName string, data []byte, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%s: %w", typeName, err)
	}
	var missing []string
	for _, k := range keys {
		if v, ok := fields[k]; !ok || string(v) == "null" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Type: typeName, Fields: missing}
	}
	return nil
}

// User is an upstream /users entry. Fields the schema doesn't expose
// (address, website, company) are dropped on decode.
type User struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// UnmarshalJSON rejects users without the fields the schema declares non-null.
func (u *User) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	if err := requireKeys("user", data, "id", "name", "username", "email", "phone"); err != nil {
		return err
	}
	type plain User
	return json.Unmarshal(data, (*plain)(u))
}

// Todo is an upstream /todos entry.
type Todo struct {
	ID        ID     `json:"id"`
	UserID    ID     `json:"userId"`
	Title     string `json:"title"`
	Completed *bool  `json:"completed"`
}

// UnmarshalJSON rejects todos without the fields the schema declares non-null.
func (t *Todo) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	if err := requireKeys("todo", data, "id", "title"); err != nil {
		return err
	}
	type plain Todo
	return json.Unmarshal(data, (*plain)(t))
}
