package config

import (
	"fmt"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// LoadCredentials reads a YAML, JSON or TOML file holding a "users" table of
// username to bcrypt hash. Keys come back lowercased; auth.Service matches
// usernames case-insensitively, so a user listed as "Admin" logs in as
// "Admin" or "admin".
func LoadCredentials(path string) (map[string][]byte, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	users := v.GetStringMapString("users")
	if len(users) == 0 {
		return nil, fmt.Errorf("credentials file %s: no users defined", path)
	}

	out := make(map[string][]byte, len(users))
	for user, hash := range users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("credentials file %s: user %q: not a bcrypt hash: %w", path, user, err)
		}
		out[user] = []byte(hash)
	}
	return out, nil
}
