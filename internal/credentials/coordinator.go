// Package credentials orchestrates the prompt/authenticate/save flow for
// HTTP basic-auth challenges: look up a stored credential, prompt on a miss,
// and after the host reports the outcome, offer to persist a fresh password
// or evict a stale one.
package credentials

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scmkit/hgcred/internal/credkey"
	"github.com/scmkit/hgcred/internal/store"
)

// Prompter is the interactive capability the coordinator depends on. It is
// injected at construction; the coordinator never reaches for a global.
type Prompter interface {
	// Credentials asks the user for a username and password. defaultUser,
	// when non-empty, is offered as the account name instead of asking.
	Credentials(realm, host, defaultUser string) (username, password string, err error)

	// Confirm asks a yes/no question.
	Confirm(prompt string) (bool, error)
}

// Credential is the result of resolving an auth challenge. FromStore records
// whether it came out of the secret store, which decides what OnResult does
// with the outcome.
type Credential struct {
	Key       credkey.Key
	Username  string
	Password  string
	FromStore bool
}

// Coordinator resolves auth challenges against a secret store and a
// prompter. It is not safe for concurrent use; each authentication flow is a
// single synchronous pass, per challenge.
type Coordinator struct {
	store    store.Store
	prompter Prompter
	rules    []credkey.AliasRule

	// seen tracks which (realm, uri) pairs already hit the store. The store
	// is only searched once per pair: if the password it held was wrong, the
	// next resolve must prompt rather than hand back the same entry.
	seen map[challenge]bool

	// Warn receives non-fatal diagnostics. Defaults to stderr.
	Warn io.Writer
}

type challenge struct {
	realm string
	uri   string
}

// New creates a coordinator over the given store, prompter, and alias rules.
func New(s store.Store, p Prompter, rules []credkey.AliasRule) *Coordinator {
	return &Coordinator{
		store:    s,
		prompter: p,
		rules:    rules,
		seen:     make(map[challenge]bool),
		Warn:     os.Stderr,
	}
}

// Resolve produces a credential for an auth challenge. The store is
// consulted first; on a miss (or an unavailable store, downgraded to a
// warning) the user is prompted. A cancelled prompt surfaces as an error and
// nothing is saved.
func (c *Coordinator) Resolve(realm, uri string) (*Credential, error) {
	key := credkey.BuildKey(realm, uri, c.rules)

	ch := challenge{realm, uri}
	if !c.seen[ch] {
		c.seen[ch] = true

		e, err := c.store.Lookup(key)
		switch {
		case err == nil:
			return &Credential{
				Key:       key,
				Username:  e.Username,
				Password:  e.Password,
				FromStore: true,
			}, nil
		case errors.Is(err, store.ErrNotFound):
			// Fall through to the prompt.
		default:
			// Unavailable store degrades to prompting; the host operation
			// must not abort over it.
			c.warnf("warning: failed to query the credential store: %v", err)
		}
	}

	username, password, err := c.prompter.Credentials(realm, key.Host, key.Username)
	if err != nil {
		return nil, fmt.Errorf("authentication aborted: %w", err)
	}

	return &Credential{Key: key, Username: username, Password: password}, nil
}

// OnResult is called by the host after the credential was tried against the
// server.
//
// A fresh credential that worked is offered for saving, once, with the
// user's consent. A stored credential that no longer works is erased before
// the failure propagates, so a stale entry can never be retried forever.
func (c *Coordinator) OnResult(cred *Credential, succeeded bool) {
	if cred == nil {
		return
	}

	if succeeded {
		if cred.FromStore || cred.Password == "" {
			return
		}

		ok, err := c.prompter.Confirm("would you like to save this password? (Y/n)")
		if err != nil || !ok {
			return
		}

		e := store.Entry{Username: cred.Username, Password: cred.Password}
		if err := c.store.Save(cred.Key, e); err != nil {
			c.warnf("warning: failed to save password: %v", err)
		}
		return
	}

	if cred.FromStore {
		if err := c.store.Erase(cred.Key); err != nil && !errors.Is(err, store.ErrNotFound) {
			c.warnf("warning: failed to discard rejected password: %v", err)
		}
	}
}

func (c *Coordinator) warnf(format string, args ...any) {
	if c.Warn == nil {
		return
	}
	fmt.Fprintf(c.Warn, format+"\n", args...)
}
