package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AdminAccount is an administrator the seeder guarantees exists.
type AdminAccount struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

// Options controls how much demo data a run creates. Presets are YAML files
// with the same field names.
type Options struct {
	Users         int            `yaml:"users"`
	PhotosPerUser int            `yaml:"photosPerUser"`
	BoardsPerUser int            `yaml:"boardsPerUser"`
	Reports       int            `yaml:"reports"`
	Password      string         `yaml:"password"`
	Admins        []AdminAccount `yaml:"admins"`
	// SkipBcrypt stores the password in clear text. Only for fast local runs.
	SkipBcrypt bool `yaml:"skipBcrypt"`
}

// DefaultOptions is a small, quick data set.
func DefaultOptions() Options {
	return Options{
		Users:         10,
		PhotosPerUser: 3,
		BoardsPerUser: 1,
		Reports:       5,
		Password:      "password123",
		Admins:        []AdminAccount{{Username: "admin", Email: "admin@storyboard.local"}},
	}
}

// LoadPreset reads a YAML preset. Fields it leaves out keep their defaults.
func LoadPreset(path string) (Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read preset: %w", err)
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return Options{}, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if err := opts.validate(); err != nil {
		return Options{}, fmt.Errorf("preset %s: %w", path, err)
	}
	return opts, nil
}

func (o Options) validate() error {
	switch {
	case o.Users < 0 || o.PhotosPerUser < 0 || o.BoardsPerUser < 0 || o.Reports < 0:
		return fmt.Errorf("counts must not be negative")
	case o.Password == "":
		return fmt.Errorf("password is required")
	}
	for _, a := range o.Admins {
		if a.Username == "" || a.Email == "" {
			return fmt.Errorf("admin accounts need a username and an email")
		}
	}
	return nil
}
