package domain

import (
	"chat-relay/errors"
	"fmt"
	"strings"
)

// Role is the first frame a data connection sends to the relay.
type Role string

const (
	RoleSend Role = "SEND"
	RoleRecv Role = "RECV"
)

// Tag is the exact frame written on the wire.
func (r Role) Tag() string {
	return string(r) + "\n"
}

func ParseRole(frame string) (Role, error) {
	switch Role(strings.TrimSpace(frame)) {
	case RoleSend:
		return RoleSend, nil
	case RoleRecv:
		return RoleRecv, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownRole, strings.TrimSpace(frame))
	}
}
