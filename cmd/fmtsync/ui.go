package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/version"
)

// terminalUI asks questions on the error stream so formatted output on
// stdout stays clean.
type terminalUI struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newTerminalUI(in io.Reader, out io.Writer, yes bool) *terminalUI {
	return &terminalUI{in: bufio.NewReader(in), out: out, yes: yes}
}

func (u *terminalUI) OfferReinstall(_ context.Context, m version.Mismatch) bool {
	return u.confirm(fmt.Sprintf("Installed formatter version %s does not match the configured version %s. Reinstall?",
		version.Format(m.Installed), m.Desired))
}

func (u *terminalUI) OfferUpdate(_ context.Context, rel release.Release) bool {
	q := fmt.Sprintf("Formatter version %s is available", rel.Version())
	if rel.HTMLURL != "" {
		q += " (" + rel.HTMLURL + ")"
	}
	return u.confirm(q + ". Update?")
}

func (u *terminalUI) OfferAuthentication(_ context.Context, err error) bool {
	fmt.Fprintf(u.out, "Could not look up the latest formatter release: %v\n", err)

	var statusErr *release.StatusError
	if errors.As(err, &statusErr) && statusErr.RateLimited {
		fmt.Fprintln(u.out, "Anonymous requests to the release API are rate limited.")
	}
	return u.confirm("Sign in with a GitHub token and retry?")
}

func (u *terminalUI) Warn(msg string, err error) {
	if err != nil {
		fmt.Fprintf(u.out, "Warning: %s: %v\n", msg, err)
		return
	}
	fmt.Fprintf(u.out, "Warning: %s\n", msg)
}

// promptToken reads a token from the terminal.
func (u *terminalUI) promptToken(context.Context) (string, error) {
	fmt.Fprint(u.out, "GitHub token: ")
	line, err := u.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

func (u *terminalUI) confirm(question string) bool {
	if u.yes {
		fmt.Fprintf(u.out, "%s [y/N] y\n", question)
		return true
	}

	fmt.Fprintf(u.out, "%s [y/N] ", question)
	answer, err := u.readLine()
	if err != nil {
		fmt.Fprintln(u.out)
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readLine returns the next trimmed line. A final line without a newline
// is still returned; io.EOF is reported only when nothing was read.
func (u *terminalUI) readLine() (string, error) {
	line, err := u.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
