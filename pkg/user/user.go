// Package user defines the User entity managed by userdesk.
package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the access role assigned to a user.
type Role string

// Roles accepted by the users resource.
const (
	RoleAdmin     Role = "Admin"
	RoleUser      Role = "User"
	RoleModerator Role = "Moderator"
)

// Roles returns the closed set of roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleUser, RoleModerator}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}

// ParseRole normalizes s ("admin", "MODERATOR", " user ") to a known Role.
func ParseRole(s string) (Role, error) {
	r := Role(cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s))))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Fields holds every user attribute except the identifier.
// It is the request body for create and update.
type Fields struct {
	Name     string `json:"name" yaml:"name"`
	LastName string `json:"lastName" yaml:"lastName"`
	Avatar   string `json:"avatar" yaml:"avatar"`
	School   string `json:"school" yaml:"school"`
	Phone    string `json:"phone" yaml:"phone"`
	Email    string `json:"email" yaml:"email"`
	Role     Role   `json:"role" yaml:"role"`
}

// FullName joins the first and last name.
func (f Fields) FullName() string {
	return strings.TrimSpace(f.Name + " " + f.LastName)
}

// Trimmed returns a copy of f with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:     strings.TrimSpace(f.Name),
		LastName: strings.TrimSpace(f.LastName),
		Avatar:   strings.TrimSpace(f.Avatar),
		School:   strings.TrimSpace(f.School),
		Phone:    strings.TrimSpace(f.Phone),
		Email:    strings.TrimSpace(f.Email),
		Role:     Role(strings.TrimSpace(string(f.Role))),
	}
}

// User is a persisted user record. ID is assigned by the remote resource.
type User struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Fields `yaml:",inline"`
}

// UnmarshalJSON accepts both string and numeric identifiers.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID json.RawMessage `json:"id"`
		Fields
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	u.ID = id
	u.Fields = raw.Fields
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid user id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid user id %s", raw)
	}
	return n.String(), nil
}

// Field keys as they appear on the wire and in forms.
const (
	FieldName     = "name"
	FieldLastName = "lastName"
	FieldAvatar   = "avatar"
	FieldSchool   = "school"
	FieldPhone    = "phone"
	FieldEmail    = "email"
	FieldRole     = "role"
)

// FieldKeys returns the editable field keys in form order.
func FieldKeys() []string {
	return []string{FieldName, FieldLastName, FieldAvatar, FieldSchool, FieldPhone, FieldEmail, FieldRole}
}

// Get returns the value of the field identified by key.
func (f Fields) Get(key string) (string, bool) {
	switch key {
	case FieldName:
		return f.Name, true
	case FieldLastName:
		return f.LastName, true
	case FieldAvatar:
		return f.Avatar, true
	case FieldSchool:
		return f.School, true
	case FieldPhone:
		return f.Phone, true
	case FieldEmail:
		return f.Email, true
	case FieldRole:
		return string(f.Role), true
	}
	return "", false
}

// Set assigns value to the field identified by key.
// Role values are stored as given; validation decides whether they are acceptable.
func (f *Fields) Set(key, value string) error {
	switch key {
	case FieldName:
		f.Name = value
	case FieldLastName:
		f.LastName = value
	case FieldAvatar:
		f.Avatar = value
	case FieldSchool:
		f.School = value
	case FieldPhone:
		f.Phone = value
	case FieldEmail:
		f.Email = value
	case FieldRole:
		f.Role = Role(value)
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}
