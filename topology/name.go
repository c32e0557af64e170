package topology

import (
	"github.com/pkg/errors"
)

const (
	MaxNameLength = 256
)

// ValidateName checks an exchange or queue name against the broker naming rules:
// 1 to 256 characters from [A-Za-z0-9-_.:].
func ValidateName(name string) error {
	if name == "" {
		return errors.WithMessage(ErrValidation, "name is empty")
	}
	if len(name) > MaxNameLength {
		return errors.WithMessagef(ErrValidation, "name is longer than %d characters", MaxNameLength)
	}
	for i := 0; i < len(name); i++ {
		if !allowedNameChar(name[i]) {
			return errors.WithMessagef(ErrValidation, "name '%s' contains forbidden character %q", name, name[i])
		}
	}
	return nil
}

func allowedNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == ':':
		return true
	}
	return false
}
