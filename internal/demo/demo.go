// Package demo holds the built-in applications served by morphd.
package demo

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/server"
)

// Server is the part of server.Server the CLI drives. It hides the model
// type of the application.
type Server interface {
	http.Handler
	ListenAndServe(ctx context.Context) error
	Shutdown(ctx context.Context) error
	RenderHTML() (string, error)
	SessionCount() int
}

// Entry is a registered application.
type Entry struct {
	Name        string
	Description string

	build func(config *server.Config, opts ...server.Option) Server
}

// NewServer builds a server for the application.
func (e Entry) NewServer(config *server.Config, opts ...server.Option) Server {
	return e.build(config, opts...)
}

var entries = map[string]Entry{}

func register[M any](name, description string, app func() runtime.App[M]) {
	entries[name] = Entry{
		Name:        name,
		Description: description,
		build: func(config *server.Config, opts ...server.Option) Server {
			return server.New(app(), config, opts...)
		},
	}
}

func init() {
	register("counter", "a counter with a configurable step", Counter)
	register("todo", "a keyed todo list", Todo)
	register("notes", "a textarea with a rendered preview", Notes)
	register("card", "a slot with delegated attributes", Card)
}

// Apps returns the registered applications sorted by name.
func Apps() []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered application names, sorted.
func Names() []string {
	apps := Apps()
	names := make([]string, len(apps))
	for i, e := range apps {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the application called name.
func Lookup(name string) (Entry, error) {
	e, ok := entries[name]
	if !ok {
		return Entry{}, errors.New(errors.CodeUnknownApp).
			WithDetailf("No application is called %q.", name).
			WithSuggestion("Available: " + strings.Join(Names(), ", "))
	}
	return e, nil
}
