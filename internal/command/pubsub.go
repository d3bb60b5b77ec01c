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

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// maxChannel bounds channel ids to keep the per-connection bitset small, per
// §6 ("channel id is small, fits in a bitset").
const maxChannel = 1 << 16

// PublishFunc delivers one published message to one subscribed connection,
// standing in for the I/O-worker ring buffer of §5 the same way
// subscription.DeliverFunc does for marker events.
type PublishFunc func(connID string, channel uint32, payload any)

// pubsubHub is the connection-keyed set of subscribed-channel bitmasks
// backing subscribe/unsubscribe/publish (§6).
type pubsubHub struct {
	conns map[string]*roaring.Bitmap
}

func newPubsubHub() *pubsubHub {
	return &pubsubHub{conns: make(map[string]*roaring.Bitmap)}
}

func (h *pubsubHub) subscribe(connID string, channel uint32) {
	bm, ok := h.conns[connID]
	if !ok {
		bm = roaring.New()
		h.conns[connID] = bm
	}
	bm.Add(channel)
}

func (h *pubsubHub) unsubscribe(connID string, channel uint32) {
	if bm, ok := h.conns[connID]; ok {
		bm.Remove(channel)
		if bm.IsEmpty() {
			delete(h.conns, connID)
		}
	}
}

func (h *pubsubHub) subscribers(channel uint32) []string {
	var out []string
	for connID, bm := range h.conns {
		if bm.Contains(channel) {
			out = append(out, connID)
		}
	}
	return out
}

// Subscribe implements subscribe: connID joins channel.
func (c *Core) Subscribe(connID string, channel uint32) error {
	if channel >= maxChannel {
		return fmt.Errorf("subscribe: %w", ErrChannelTooLarge)
	}
	c.pubsub.subscribe(connID, channel)
	return nil
}

// Unsubscribe implements unsubscribe.
func (c *Core) Unsubscribe(connID string, channel uint32) {
	c.pubsub.unsubscribe(connID, channel)
}

// Publish implements publish: deliver payload to every connection currently
// subscribed to channel via deliver.
func (c *Core) Publish(channel uint32, payload any, deliver PublishFunc) {
	for _, connID := range c.pubsub.subscribers(channel) {
		deliver(connID, channel, payload)
	}
}
