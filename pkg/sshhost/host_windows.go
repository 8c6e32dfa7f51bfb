//go:build windows

package sshhost

import (
	"context"
	"net"

	"github.com/rs/zerolog"
)

// Host is a placeholder; pseudo-terminals are not available on Windows.
type Host struct{}

func New(cfg Config, log zerolog.Logger) (*Host, error) {
	return nil, ErrUnsupported
}

func (h *Host) ListenAndServe() error { return ErrUnsupported }

func (h *Host) Serve(l net.Listener) error { return ErrUnsupported }

func (h *Host) Shutdown(ctx context.Context) error { return nil }
