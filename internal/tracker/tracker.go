// Package tracker drives the client through its lifecycle: restoring or
// acquiring a credential, synchronizing the transaction collection, and
// dropping everything again on logout.
package tracker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/logger"
	"budgettracker/internal/session"
	"budgettracker/internal/store"
	"budgettracker/internal/summary"
)

// Phase is the client's position in the authentication and sync lifecycle.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseAuthenticating  Phase = "authenticating"
	PhaseSyncing         Phase = "syncing"
	PhaseReady           Phase = "ready"
	PhaseError           Phase = "error"
)

// Gateway is the remote surface the tracker needs: the account endpoints on
// top of the transaction operations used by the store.
type Gateway interface {
	store.Gateway
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// Tracker ties the session holder, the gateway and the store together.
type Tracker struct {
	gateway Gateway
	session *session.Holder
	store   *store.Store
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	phase   Phase
	lastErr error
}

// New creates a Tracker in the unauthenticated phase. Call Start to pick up a
// persisted credential.
func New(gateway Gateway, holder *session.Holder) *Tracker {
	t := &Tracker{
		gateway: gateway,
		session: holder,
		store:   store.New(gateway, holder),
		log:     logger.Named("tracker"),
		phase:   PhaseUnauthenticated,
	}
	holder.Subscribe(func(authenticated bool) {
		if !authenticated {
			t.setPhase(PhaseUnauthenticated, nil)
		}
	})
	return t
}

// Store returns the transaction store.
func (t *Tracker) Store() *store.Store {
	return t.store
}

// Phase returns the current phase.
func (t *Tracker) Phase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// Err returns the failure that put the tracker in PhaseError, if any.
func (t *Tracker) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// Start restores a persisted credential and, when one exists, synchronizes.
// Without a credential it stays unauthenticated and makes no network call.
func (t *Tracker) Start(ctx context.Context) error {
	ok, err := t.session.Restore()
	if err != nil {
		return err
	}
	if !ok {
		t.log.Debug("no persisted session")
		return nil
	}
	return t.sync(ctx)
}

// Register creates a remote account. The phase is unchanged; the caller logs
// in separately.
func (t *Tracker) Register(ctx context.Context, username, password string) error {
	if err := t.gateway.Register(ctx, username, password); err != nil {
		t.log.Warnw("registration failed", "username", username, "error", err)
		return err
	}
	t.log.Infow("account registered", "username", username)
	return nil
}

// Login exchanges credentials for a token, stores it and synchronizes. A
// failed attempt leaves any existing session, and its phase, untouched.
func (t *Tracker) Login(ctx context.Context, username, password string) error {
	t.mu.RLock()
	previous, previousErr := t.phase, t.lastErr
	t.mu.RUnlock()
	t.setPhase(PhaseAuthenticating, nil)

	token, err := t.gateway.Login(ctx, username, password)
	if err == nil {
		err = t.session.SetCredential(token)
	}
	if err != nil {
		t.log.Warnw("login failed", "username", username, "error", err)
		if t.session.IsAuthenticated() {
			t.setPhase(previous, previousErr)
		} else {
			t.setPhase(PhaseUnauthenticated, nil)
		}
		return err
	}

	t.log.Infow("logged in", "username", username)
	return t.sync(ctx)
}

// Retry re-runs synchronization after a failure.
func (t *Tracker) Retry(ctx context.Context) error {
	if !t.session.IsAuthenticated() {
		return apperrors.ErrUnauthenticated
	}
	return t.sync(ctx)
}

// Logout clears the credential. The store empties itself and the phase moves
// to unauthenticated through the session subscription.
func (t *Tracker) Logout() error {
	return t.session.Clear()
}

// Summary recomputes the aggregate view from the current collection.
func (t *Tracker) Summary() summary.Summary {
	return summary.Compute(t.store.Current())
}

func (t *Tracker) sync(ctx context.Context) error {
	previous := t.Phase()
	t.setPhase(PhaseSyncing, nil)

	err := t.store.Refresh(ctx)
	switch {
	case err == nil:
		t.setPhase(PhaseReady, nil)
	case errors.Is(err, apperrors.ErrBusy):
		t.setPhase(previous, nil)
	case errors.Is(err, apperrors.ErrUnauthenticated):
		if !t.session.IsAuthenticated() {
			t.setPhase(PhaseUnauthenticated, nil)
		}
	default:
		t.setPhase(PhaseError, err)
	}
	return err
}

func (t *Tracker) setPhase(p Phase, err error) {
	t.mu.Lock()
	from := t.phase
	t.phase = p
	t.lastErr = err
	t.mu.Unlock()

	if from != p {
		t.log.Debugw("phase changed", "from", from, "to", p)
	}
}
