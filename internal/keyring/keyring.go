package keyring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bursa/internal/nonce"
	"bursa/pkg/core"
)

// KeyRing holds the credential sets of a client and selects the one used for
// the next signed request.
type KeyRing struct {
	mu       sync.RWMutex
	keys     []*APIKey
	current  int
	strategy RotationStrategy
	now      func() time.Time
	logger   zerolog.Logger
}

// APIKey is one credential set. It owns the nonce sequence the venue tracks
// for that key, and satisfies core.AuthContext.
type APIKey struct {
	ID         string
	Key        string
	Secret     string
	Passphrase string
	Disabled   bool
	LastUsed   time.Time
	ErrorCount int

	nonceOnce sync.Once
	nonces    *nonce.Generator
	sendMu    sync.Mutex
}

var _ core.AuthContext = (*APIKey)(nil)

type RotationStrategy int

const (
	RotationRoundRobin RotationStrategy = iota
	RotationOnError
	RotationOnRateLimit
)

// Option configures a KeyRing.
type Option func(*KeyRing)

// WithClock sets the clock used to seed nonces and stamp usage.
func WithClock(now func() time.Time) Option {
	return func(k *KeyRing) {
		k.now = now
	}
}

// WithLogger sets the logger used for rotation events.
func WithLogger(l zerolog.Logger) Option {
	return func(k *KeyRing) {
		k.logger = l
	}
}

func NewKeyRing(keys []*APIKey, strategy RotationStrategy, opts ...Option) *KeyRing {
	k := &KeyRing{
		keys:     make([]*APIKey, 0, len(keys)),
		strategy: strategy,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(k)
	}

	for _, key := range keys {
		k.keys = append(k.keys, k.copyKey(key))
	}
	return k
}

// FromCredentials builds a single-key ring. It returns nil when creds carry
// no usable key pair.
func FromCredentials(creds *core.Credentials, opts ...Option) *KeyRing {
	if creds.IsZero() {
		return nil
	}
	return NewKeyRing([]*APIKey{{
		ID:         "default",
		Key:        creds.APIKey,
		Secret:     creds.SecretKey,
		Passphrase: creds.Passphrase,
	}}, RotationRoundRobin, opts...)
}

func (k *KeyRing) copyKey(key *APIKey) *APIKey {
	return &APIKey{
		ID:         key.ID,
		Key:        key.Key,
		Secret:     key.Secret,
		Passphrase: key.Passphrase,
		Disabled:   key.Disabled,
		LastUsed:   key.LastUsed,
		ErrorCount: key.ErrorCount,
		nonces:     nonce.New(k.now),
	}
}

// Current returns the active key, skipping disabled ones. It returns nil when
// no key is usable.
func (k *KeyRing) Current() *APIKey {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if len(k.keys) == 0 {
		return nil
	}

	for i := 0; i < len(k.keys); i++ {
		idx := (k.current + i) % len(k.keys)
		if !k.keys[idx].Disabled {
			return k.keys[idx]
		}
	}

	return nil
}

func (k *KeyRing) Rotate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rotateLocked()
}

func (k *KeyRing) rotateLocked() {
	if len(k.keys) == 0 {
		return
	}

	start := k.current
	for {
		k.current = (k.current + 1) % len(k.keys)
		if !k.keys[k.current].Disabled || k.current == start {
			break
		}
	}
	k.logger.Debug().Str("key", k.keys[k.current].String()).Msg("api key rotated")
}

// OnError records a failed signed request against the current key and
// rotates according to the strategy.
func (k *KeyRing) OnError(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return
	}

	k.keys[k.current].ErrorCount++

	switch k.strategy {
	case RotationOnError:
		k.rotateLocked()
	case RotationOnRateLimit:
		if core.IsRateLimitError(err) {
			k.rotateLocked()
		}
	}
}

func (k *KeyRing) MarkUsed() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return
	}

	k.keys[k.current].LastUsed = k.now()
	if k.strategy == RotationRoundRobin && len(k.keys) > 1 {
		k.rotateLocked()
	}
}

func (k *KeyRing) Disable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = true
			return
		}
	}
}

func (k *KeyRing) Enable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = false
			key.ErrorCount = 0
			return
		}
	}
}

func (k *KeyRing) Add(key *APIKey) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, existing := range k.keys {
		if existing.ID == key.ID {
			return
		}
	}

	k.keys = append(k.keys, k.copyKey(key))
}

func (k *KeyRing) Remove(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, key := range k.keys {
		if key.ID == id {
			k.keys = append(k.keys[:i], k.keys[i+1:]...)
			if k.current >= len(k.keys) {
				k.current = 0
			}
			return
		}
	}
}

// Len returns the number of keys, disabled ones included.
func (k *KeyRing) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// Credentials implements core.AuthContext.
func (k *APIKey) Credentials() core.Credentials {
	return core.Credentials{
		APIKey:     k.Key,
		SecretKey:  k.Secret,
		Passphrase: k.Passphrase,
	}
}

// NextNonce implements core.AuthContext.
func (k *APIKey) NextNonce() int64 {
	k.nonceOnce.Do(func() {
		if k.nonces == nil {
			k.nonces = nonce.New(nil)
		}
	})
	return k.nonces.Next()
}

// Exclusive runs fn while holding the key's send lock. Drawing a nonce and
// delivering the request inside fn keeps the venue seeing nonces in the order
// they were drawn.
func (k *APIKey) Exclusive(fn func() error) error {
	k.sendMu.Lock()
	defer k.sendMu.Unlock()
	return fn()
}

func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Key))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
