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

package modify

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/selvalog"
	"github.com/ugorji/go/codec"
)

var replLog = selvalog.New("component", "modify.replication")

// Message is the replication payload of §4.6: the triplets whose outcome
// was Updated or Replicate, plus synthetic triplets pinning the final
// createdAt/updatedAt so replicas converge byte-for-byte.
type Message struct {
	BatchID  uuid.UUID
	Target   nodeid.ID
	Triplets []Triplet
}

var mh codec.MsgpackHandle

// Encode serializes m with github.com/ugorji/go/codec's msgpack handle, the
// pack's binary-encoding dependency (erigon-lib go.mod).
func (m Message) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, &mh)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMessage is the inverse of Encode.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	dec := codec.NewDecoderBytes(data, &mh)
	err := dec.Decode(&m)
	return m, err
}

// ReplicationSink receives the replication message built at the end of a
// successful modify batch. Implementations must not block the core thread
// (§5): the in-memory ring buffer below counts and drops on overflow rather
// than blocking the caller.
type ReplicationSink interface {
	Send(Message) error
}

// RingBuffer is a fixed-capacity, non-blocking ReplicationSink standing in
// for the durable sink a real deployment would supply (§5 "enqueuing
// fixed-size records; when the buffer is full the event is counted as
// missed and dropped").
type RingBuffer struct {
	mu      sync.Mutex
	cap     int
	buf     []Message
	dropped uint64
}

// NewRingBuffer returns a RingBuffer holding at most capacity messages.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{cap: capacity}
}

// Send appends msg, dropping and counting it if the buffer is full.
func (r *RingBuffer) Send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) >= r.cap {
		r.dropped++
		replLog.Warn("replication ring buffer full, dropping record", "target", msg.Target.String())
		return nil
	}
	r.buf = append(r.buf, msg)
	return nil
}

// Drain removes and returns every buffered message.
func (r *RingBuffer) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.buf
	r.buf = nil
	return out
}

// Dropped returns the number of messages dropped due to a full buffer.
func (r *RingBuffer) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
