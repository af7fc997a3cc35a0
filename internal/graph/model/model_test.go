package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{`1`, "1", false},
		{`200`, "200", false},
		{`9007199254740993`, "9007199254740993", false},
		{`1.5`, "1.5", false},
		{`"abc"`, "abc", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got ID
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTodoUnmarshal(t *testing.T) {
	data := `{"userId": 1, "id": 2, "title": "quis ut nam facilis", "completed": false}`

	var got Todo
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	completed := false
	want := Todo{ID: "2", UserID: "1", Title: "quis ut nam facilis", Completed: &completed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Todo mismatch (-want +got):\n%s", diff)
	}
}

func TestTodoUnmarshalMissingCompleted(t *testing.T) {
	var got Todo
	if err := json.Unmarshal([]byte(`{"id": 3, "title": "x"}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Completed != nil {
		t.Errorf("Completed = %v, want nil", *got.Completed)
	}
}

func TestUserUnmarshal(t *testing.T) {
	data := `{
		"id": 1,
		"name": "Leanne Graham",
		"username": "Bret",
		"email": "Sincere@april.biz",
		"address": {"street": "Kulas Light"},
		"phone": "1-770-736-8031 x56442",
		"website": "hildegard.org"
	}`

	var got User
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := User{
		ID:       "1",
		Name:     "Leanne Graham",
		Username: "Bret",
		Email:    "Sincere@april.biz",
		Phone:    "1-770-736-8031 x56442",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("User mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  any
		missing []string
	}{
		{"empty user", `{}`, &User{}, []string{"id", "name", "username", "email", "phone"}},
		{"user null name", `{"id": 1, "name": null, "username": "Bret", "email": "a@b.c", "phone": "1"}`, &User{}, []string{"name"}},
		{"empty todo", `{}`, &Todo{}, []string{"id", "title"}},
		{"todo without title", `{"id": 1, "userId": 1}`, &Todo{}, []string{"title"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := json.Unmarshal([]byte(tt.input), tt.target)
			var mfe *MissingFieldsError
			if !errors.As(err, &mfe) {
				t.Fatalf("Unmarshal() error = %v, want MissingFieldsError", err)
			}
			if diff := cmp.Diff(tt.missing, mfe.Fields); diff != "" {
				t.Errorf("missing fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalNullEntity(t *testing.T) {
	var u *User
	if err := json.Unmarshal([]byte(`null`), &u); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if u != nil {
		t.Errorf("Unmarshal(null) = %+v, want nil", u)
	}

	var todos []*Todo
	if err := json.Unmarshal([]byte(`[null, {"id": 1, "title": "x"}]`), &todos); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(todos) != 2 || todos[0] != nil || todos[1].ID != "1" {
		t.Errorf("Unmarshal() = %+v", todos)
	}
}
