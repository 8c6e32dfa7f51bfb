// Package sshhost serves the terminal client over SSH, one process per
// session, each attached to its own pseudo-terminal.
package sshhost

import (
	"errors"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
)

const (
	DefaultAddr        = ":2222"
	DefaultIdleTimeout = 5 * time.Minute
)

// ErrUnsupported is returned by New where pseudo-terminals are unavailable.
var ErrUnsupported = errors.New("sshhost: ssh hosting is not supported on this platform")

type Config struct {
	Addr string
	// Binary is started for every session with Args followed by -name.
	Binary      string
	Args        []string
	HostKeyFile string
	IdleTimeout time.Duration
}

// SessionName gives each connection a memorable name.
func SessionName(user string) string {
	name := petname.Generate(2, "-")
	if user == "" {
		return name
	}
	return user + "-" + name
}
