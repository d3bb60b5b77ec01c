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

import "errors"

// Command-layer errors are namespaced distinctly from the core-layer errors
// they wrap, per §7's "command-layer errors prefixed distinctly from
// core-layer". Handlers that wrap a collaborator's error do so with %w under
// their own command-name prefix (e.g. "modify: ...", "index.new: ..."), so
// errors.Is still reaches the original sentinel; HierarchyRestore returns
// the detached store's error unwrapped.
var (
	ErrUnknownCommand  = errors.New("command: unknown command")
	ErrInvalidArgument = errors.New("command: invalid argument")
	ErrNodeNotFound    = errors.New("command: node not found")
	ErrUnsupportedPath = errors.New("command: nested path not supported for this value kind")
	ErrBadCombination  = errors.New("command: invalid option combination")
	ErrChannelTooLarge = errors.New("command: channel id exceeds bitset range")
)
