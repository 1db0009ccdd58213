package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
)

// Token environment variables, checked in order.
var tokenEnvVars = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// envSessionProvider hands out a token from the --token flag or the
// environment, and asks for one on the terminal when allowed to.
type envSessionProvider struct {
	flagToken string
	getenv    func(string) string
	prompt    func(ctx context.Context) (string, error)
}

func (p *envSessionProvider) Session(ctx context.Context, interactive bool) (*release.Session, error) {
	if p.flagToken != "" {
		return &release.Session{ID: "flag", AccessToken: p.flagToken}, nil
	}

	getenv := p.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range tokenEnvVars {
		if token := getenv(name); token != "" {
			return &release.Session{ID: "env:" + name, AccessToken: token}, nil
		}
	}

	if !interactive || p.prompt == nil {
		return nil, release.ErrNoSession
	}

	token, err := p.prompt(ctx)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return nil, release.ErrNoSession
	}
	return &release.Session{ID: "prompt", AccessToken: token}, nil
}

// sessionChanges reports SIGHUP as a session change so a long-running
// process drops its cached credential and re-reads the environment.
func sessionChanges(ctx context.Context) <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)

	changes := make(chan struct{})
	go func() {
		defer signal.Stop(sig)
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				select {
				case changes <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return changes
}
