//go:build !windows

package sshhost

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog"
	gossh "golang.org/x/crypto/ssh"
)

type Host struct {
	cfg    Config
	server *ssh.Server
	log    zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Host, error) {
	if cfg.Binary == "" {
		return nil, errors.New("sshhost: client binary must be specified")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	h := &Host{cfg: cfg, log: log}
	h.server = &ssh.Server{
		Addr:        cfg.Addr,
		IdleTimeout: cfg.IdleTimeout,
		Handler:     h.handle,
	}

	if cfg.HostKeyFile != "" {
		if err := h.server.SetOption(ssh.HostKeyFile(cfg.HostKeyFile)); err != nil {
			return nil, fmt.Errorf("sshhost: host key: %w", err)
		}
	} else {
		signer, err := generateHostKey()
		if err != nil {
			return nil, err
		}
		h.server.AddHostKey(signer)
		log.Warn().Str("fingerprint", gossh.FingerprintSHA256(signer.PublicKey())).
			Msg("no host key configured, using a throwaway key")
	}
	return h, nil
}

func generateHostKey() (gossh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("sshhost: generate host key: %w", err)
	}
	signer, err := gossh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("sshhost: host key signer: %w", err)
	}
	return signer, nil
}

func (h *Host) ListenAndServe() error {
	h.log.Info().Str("addr", h.cfg.Addr).Msg("ssh host listening")
	return h.server.ListenAndServe()
}

func (h *Host) Serve(l net.Listener) error {
	return h.server.Serve(l)
}

func (h *Host) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *Host) handle(s ssh.Session) {
	ptyReq, winCh, isPty := s.Pty()
	if !isPty {
		io.WriteString(s, "non-interactive terminals are not supported\n")
		s.Exit(1)
		return
	}

	name := SessionName(s.User())
	log := h.log.With().Str("session", name).Str("remote", s.RemoteAddr().String()).Logger()

	cmdCtx, cancelCmd := context.WithCancel(s.Context())
	defer cancelCmd()

	args := append(append([]string{}, h.cfg.Args...), "-name", name)
	cmd := exec.CommandContext(cmdCtx, h.cfg.Binary, args...)
	cmd.Env = append(s.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		log.Error().Err(err).Msg("start client")
		io.WriteString(s, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		s.Exit(1)
		return
	}
	defer f.Close()
	log.Info().Msg("session started")

	go func() {
		for win := range winCh {
			if err := pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)}); err != nil {
				log.Debug().Err(err).Msg("resize")
			}
		}
	}()

	go func() {
		io.Copy(f, s)
	}()
	io.Copy(s, f)

	f.Close()
	if err := cmd.Wait(); err != nil {
		log.Info().Err(err).Msg("session ended")
		return
	}
	log.Info().Msg("session ended")
}
