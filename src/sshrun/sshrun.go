// Package sshrun executes read commands on a device over SSH.
package sshrun

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// Runner executes a single shell command on a remote device and returns its
// stdout. A non-zero exit status is returned as an error.
type Runner interface {
	Run(cmd string) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface, mainly for tests.
type RunnerFunc func(cmd string) ([]byte, error)

func (f RunnerFunc) Run(cmd string) ([]byte, error) { return f(cmd) }

// Dialer opens a Runner against a device address with password credentials.
type Dialer func(addr, user, password string) (Runner, func() error, error)

const dialTimeout = 10 * time.Second

// Dial opens an SSH connection to addr (port 22 is appended when none is
// given) using password authentication. Host keys are not verified: the
// device registry stores no host keys, matching the credential model of the
// rest of the tool.
func Dial(addr, user, password string) (Runner, func() error, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}
	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return &sshRunner{client: client}, client.Close, nil
}

type sshRunner struct {
	client *ssh.Client
}

// Run executes cmd in a fresh session. One session per command keeps the
// round-trips independent; a failed command does not poison the connection.
func (r *sshRunner) Run(cmd string) ([]byte, error) {
	sess, err := r.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}
	defer sess.Close()

	var stdout bytes.Buffer
	sess.Stdout = &stdout
	if err := sess.Run(cmd); err != nil {
		return nil, fmt.Errorf("run %q: %w", cmd, err)
	}
	return stdout.Bytes(), nil
}
