package utility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFramework is returned when a framework name is not supported.
var ErrUnknownFramework = errors.New("unknown framework")

// Framework identifies a CSS utility framework.
type Framework string

const (
	Tailwind  Framework = "tailwind"
	Bootstrap Framework = "bootstrap"
)

// Frameworks lists the supported frameworks.
func Frameworks() []Framework {
	return []Framework{Tailwind, Bootstrap}
}

// ParseFramework validates a user-supplied framework name.
func ParseFramework(s string) (Framework, error) {
	switch f := Framework(strings.ToLower(strings.TrimSpace(s))); f {
	case Tailwind, Bootstrap:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (use tailwind or bootstrap)", ErrUnknownFramework, s)
	}
}

// MixinsFile is the name of the generated mixins stylesheet.
func (f Framework) MixinsFile() string {
	return string(f) + ".mixins.scss"
}
