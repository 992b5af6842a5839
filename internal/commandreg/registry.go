// Package commandreg maps command tokens to handlers. Registration is explicit;
// nothing registers itself at import time.
package commandreg

import (
	"context"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// Handler runs a command with its positional arguments.
type Handler func(ctx context.Context, args []string) error

// Command is a registered token.
type Command struct {
	Token   string
	Usage   string
	Handler Handler
}

// Registry manages command registration and dispatch.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Tokens are unique and case-insensitive.
func (r *Registry) Register(token, usage string, h Handler) error {
	key := normalize(token)
	if key == "" {
		return errors.InternalError("cannot register empty command token").Build()
	}
	if h == nil {
		return errors.InternalError("cannot register nil handler").WithContext("token", key).Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[key]; exists {
		return errors.InternalError("command already registered").WithContext("token", key).Build()
	}
	r.commands[key] = Command{Token: key, Usage: usage, Handler: h}
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(token, usage string, h Handler) {
	if err := r.Register(token, usage, h); err != nil {
		panic(err)
	}
}

// Get returns the command for token.
func (r *Registry) Get(token string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[normalize(token)]
	return c, ok
}

// Has reports whether token is registered.
func (r *Registry) Has(token string) bool {
	_, ok := r.Get(token)
	return ok
}

// List returns the registered commands sorted by token.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Command) int { return strings.Compare(a.Token, b.Token) })
	return out
}

// Tokens returns the registered tokens in sorted order.
func (r *Registry) Tokens() []string {
	cmds := r.List()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Token
	}
	return out
}

// Dispatch runs the handler registered for token. Unknown tokens are
// validation errors listing the known ones.
func (r *Registry) Dispatch(ctx context.Context, token string, args []string) error {
	c, ok := r.Get(token)
	if !ok {
		return errors.ValidationError("unknown command").
			WithContext("token", token).
			WithContext("known", strings.Join(r.Tokens(), ",")).
			Build()
	}
	return c.Handler(ctx, args)
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
