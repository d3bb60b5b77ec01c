// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

package command

import "fmt"

// Registry is the by-name command table of §6: every entry a thin adapter
// decoding Args into a Core method call. It holds no state of its own
// beyond the table, so a server can build one Registry per Core and dispatch
// every incoming request through it without reflection.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a Registry pre-populated with every §6 command bound to
// c.
func NewRegistry(c *Core) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	c.bind(r)
	return r
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Dispatch looks up name and invokes it with args, wrapping an unknown name
// in ErrUnknownCommand.
func (r *Registry) Dispatch(name string, args Args) (any, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return h(args)
}

// Names returns every registered command name, for introspection/tests.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
