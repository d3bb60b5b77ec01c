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

// Package subscription implements spec.md §4.4: subscription markers,
// marker-membership refresh, the deferred-event queue, trigger markers and
// missing-accessor markers. It implements hierarchy.EventSink so
// internal/hierarchy can notify it of structural changes without importing
// it.
package subscription

import "errors"

var (
	ErrNotFound = errors.New("subscription: not found")
	ErrExists   = errors.New("subscription: marker already exists")
	ErrInvalid  = errors.New("subscription: invalid marker")
)
