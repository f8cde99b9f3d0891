// Package session holds the bearer credential for the tracker client. The
// Holder is the only writer of the credential; the gateway and the store read
// it through the Holder on every call, so a change is visible to the very next
// request.
package session

import (
	"fmt"
	"strings"
	"sync"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/logger"
)

// CredentialKey is the storage key the bearer token is persisted under.
const CredentialKey = "auth.token"

// Listener is notified after every credential change.
type Listener func(authenticated bool)

// Holder owns the current credential.
type Holder struct {
	storage Storage

	mu         sync.RWMutex
	token      string
	generation uint64
	listeners  []Listener
}

// NewHolder creates an unauthenticated Holder backed by storage.
func NewHolder(storage Storage) *Holder {
	return &Holder{storage: storage}
}

// Restore loads a persisted credential, if any. It never touches the network.
func (h *Holder) Restore() (bool, error) {
	token, ok, err := h.storage.Load(CredentialKey)
	if err != nil {
		return false, fmt.Errorf("restoring session: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return false, nil
	}

	h.mu.Lock()
	h.token = token
	h.generation++
	h.mu.Unlock()

	logger.Named("session").Debug("session restored")
	h.notify(true)
	return true, nil
}

// SetCredential persists token and makes it the active credential.
func (h *Holder) SetCredential(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "token must not be empty")
	}
	if err := h.storage.Save(CredentialKey, token); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	h.mu.Lock()
	h.token = token
	h.generation++
	h.mu.Unlock()

	h.notify(true)
	return nil
}

// Clear drops the credential from memory and storage. The in-memory
// credential is gone even if the storage delete fails.
func (h *Holder) Clear() error {
	h.mu.Lock()
	had := h.token != ""
	h.token = ""
	h.generation++
	h.mu.Unlock()

	err := h.storage.Delete(CredentialKey)
	if had {
		logger.Named("session").Info("session cleared")
	}
	h.notify(false)
	if err != nil {
		return fmt.Errorf("removing persisted session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a credential is held.
func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != ""
}

// Token returns the current credential.
func (h *Holder) Token() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, h.token != ""
}

// Generation increments on every credential change. Callers compare values
// taken before and after a request to detect that the session moved on.
func (h *Holder) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.generation
}

// Subscribe registers fn to be called after every credential change.
func (h *Holder) Subscribe(fn func(authenticated bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *Holder) notify(authenticated bool) {
	h.mu.RLock()
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(authenticated)
	}
}
