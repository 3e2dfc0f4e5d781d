package usersapi

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/userdesk/userdesk/pkg/user"
	"github.com/userdesk/userdesk/pkg/validation"
)

// SeedFile is the on-disk seed format:
//
//	users:
//	  - name: Ann
//	    lastName: Lee
//	    ...
type SeedFile struct {
	Users []user.User `yaml:"users"`
}

// LoadSeed reads seed users from a YAML file. Every user must pass the form
// rules; role names are normalized ("admin" becomes "Admin").
func LoadSeed(path string) ([]user.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML. Unknown keys are rejected.
func ParseSeed(data []byte) ([]user.User, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range seed.Users {
		u := &seed.Users[i]
		if role, err := user.ParseRole(string(u.Role)); err == nil {
			u.Role = role
		}
		if result := validation.ValidateUser(u.Fields); result.HasErrors() {
			return nil, fmt.Errorf("seed user %d: %w", i, result)
		}
	}
	return seed.Users, nil
}
