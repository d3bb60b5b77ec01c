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
	"time"

	"github.com/google/uuid"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/selvalog"
	"github.com/selvadb/selva/internal/subscription"
)

var log = selvalog.New("component", "modify")

const (
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// Clock abstracts wall-clock reads so tests can pin createdAt/updatedAt.
type Clock func() time.Time

// Operation bundles the collaborators Apply needs: the hierarchy to mutate,
// the subscription manager to drive through its three-phase batch (may be
// nil to run unsubscribed), the replication sink, and the clock.
type Operation struct {
	Hierarchy    *hierarchy.Hierarchy
	Subscription *subscription.Manager
	Replication  ReplicationSink
	Now          Clock
}

func (op Operation) now() time.Time {
	if op.Now != nil {
		return op.Now()
	}
	return time.Now()
}

// Apply executes req per §4.6: alias resolution, per-triplet application in
// order, automatic timestamps, trigger firing, and replication-message
// assembly. Partial-batch atomicity is not provided (§7): a triplet that
// already mutated state before a later triplet fails stays applied.
func (op Operation) Apply(req Request) (Result, error) {
	h := op.Hierarchy
	target := resolveAliasTarget(h, req.Target, req.Triplets)

	_, exists := h.FindNode(target)
	if req.Flags.Has(NoRoot) && target.IsRoot() {
		return Result{}, ErrRootForbidden
	}
	if req.Flags.Has(Create) && exists {
		return Result{}, ErrAlreadyExists
	}
	if req.Flags.Has(Update) && !exists {
		return Result{}, ErrNotFound
	}

	n, created := h.Upsert(target)
	if req.Flags.Has(NoMerge) && !created {
		n.Object = object.New()
	}

	if op.Subscription != nil {
		op.Subscription.BeginBatch()
		op.Subscription.PrecheckNode(n.ID)
	}

	now := op.now().UnixMilli()
	if created {
		n.Implicit = false
		_, _ = n.Object.SetLongLong(fieldCreatedAt, now, object.WriteSet)
		_, _ = n.Object.SetLongLong(fieldUpdatedAt, now, object.WriteSet)
	}

	results := make([]TripletResult, len(req.Triplets))
	replTriplets := make([]Triplet, 0, len(req.Triplets)+2)
	touchedNonTimestamp := false

	for i, t := range req.Triplets {
		outcome, deferField, err := op.applyTriplet(n, t)
		results[i] = TripletResult{Outcome: outcome, Err: err}
		if err != nil {
			log.Error("triplet failed", "target", n.ID.String(), "field", t.Field, "err", err)
			continue
		}
		switch outcome {
		case Updated:
			replTriplets = append(replTriplets, t)
			if deferField != "" && op.Subscription != nil {
				op.Subscription.DeferFieldChange(n.ID, deferField)
			}
			if deferField != fieldUpdatedAt {
				touchedNonTimestamp = true
			}
		case Replicate:
			replTriplets = append(replTriplets, t)
		}
	}

	if !created && touchedNonTimestamp {
		_, _ = n.Object.SetLongLong(fieldUpdatedAt, op.now().UnixMilli(), object.WriteSet)
		if op.Subscription != nil {
			op.Subscription.DeferFieldChange(n.ID, fieldUpdatedAt)
		}
	}

	replTriplets = append(replTriplets, pinTimestamp(n, fieldCreatedAt), pinTimestamp(n, fieldUpdatedAt))

	if op.Subscription != nil {
		if created {
			op.Subscription.FireCreatedTrigger(n.ID)
		} else if touchedNonTimestamp {
			op.Subscription.FireUpdatedTrigger(n.ID)
		}
		op.Subscription.EndBatch()
	}

	if op.Replication != nil {
		_ = op.Replication.Send(Message{BatchID: uuid.New(), Target: n.ID, Triplets: replTriplets})
	}

	return Result{NodeID: n.ID, Results: results}, nil
}

// pinTimestamp builds the synthetic triplet §4.6 requires so replicas
// converge on the exact final createdAt/updatedAt regardless of clock skew
// between primary and replica.
func pinTimestamp(n *hierarchy.Node, field string) Triplet {
	lk := n.Object.GetPath(field)
	var v int64
	if lk.IsFound() {
		v = lk.Value.Long
	}
	return Triplet{Type: ScalarSet, Field: field, Scalar: ScalarLong, Long: v}
}

// resolveAliasTarget implements §4.6's "Alias resolution": if the triplets
// include an Alias entry, the first candidate that already resolves
// replaces the supplied target; otherwise the supplied target stands and
// every listed alias is later assigned to it.
func resolveAliasTarget(h *hierarchy.Hierarchy, target nodeid.ID, triplets []Triplet) nodeid.ID {
	for _, t := range triplets {
		if t.Type != Alias {
			continue
		}
		for _, a := range t.Members {
			if id, ok := h.ResolveAlias(a); ok {
				return id
			}
		}
	}
	return target
}

// applyTriplet dispatches one triplet to the object store, edge store, or
// hierarchy, returning its outcome and (for field-store triplets) the field
// path to defer a change event for.
func (op Operation) applyTriplet(n *hierarchy.Node, t Triplet) (Outcome, string, error) {
	h := op.Hierarchy
	switch t.Type {
	case Alias:
		for _, a := range t.Members {
			h.SetAlias(a, n.ID)
		}
		if len(t.Members) == 0 {
			return Unchanged, "", nil
		}
		return Replicate, "", nil

	case ScalarSet, DefaultScalarSet:
		mode := object.WriteSet
		if t.Type == DefaultScalarSet {
			mode = object.WriteDefault
		}
		var changed bool
		var err error
		switch t.Scalar {
		case ScalarLong:
			changed, err = n.Object.SetLongLong(t.Field, t.Long, mode)
		case ScalarDouble:
			changed, err = n.Object.SetDouble(t.Field, t.Double, mode)
		case ScalarString:
			changed, err = n.Object.SetString(t.Field, t.Str, mode)
		}
		if err != nil {
			return Unchanged, "", err
		}
		return boolOutcome(changed), t.Field, nil

	case Increment:
		var changed bool
		var err error
		switch t.Scalar {
		case ScalarDouble:
			_, changed, err = n.Object.IncrementDouble(t.Field, t.Double)
		default:
			_, changed, err = n.Object.IncrementLongLong(t.Field, t.Long)
		}
		if err != nil {
			return Unchanged, "", err
		}
		return boolOutcome(changed), t.Field, nil

	case SetOp:
		var changed bool
		var err error
		switch t.SetKind {
		case object.SetString:
			changed, err = n.Object.AddStringSet(t.Field, t.Members...)
		case object.SetLong:
			longs := make([]int64, len(t.Members))
			for i, m := range t.Members {
				longs[i] = t.Long
				_ = m
			}
			changed, err = n.Object.AddLongLongSet(t.Field, longs...)
		case object.SetDouble:
			changed, err = n.Object.AddDoubleSet(t.Field, t.Double)
		case object.SetNodeID:
			ids := make([]nodeid.ID, len(t.Members))
			for i, m := range t.Members {
				ids[i] = nodeid.FromString(m)
			}
			changed, err = n.Object.AddNodeIDSet(t.Field, ids...)
		}
		if err != nil {
			return Unchanged, "", err
		}
		return boolOutcome(changed), t.Field, nil

	case Del:
		if t.Field == "parents" || t.Field == "children" {
			ids := toIDs(t.Members)
			if t.Field == "parents" {
				h.DelHierarchy(n.ID, ids, nil)
			} else {
				h.DelHierarchy(n.ID, nil, ids)
			}
			return Updated, "", nil
		}
		return boolOutcome(n.Object.Delete(t.Field)), t.Field, nil

	case ArrayPush:
		vals := arrayValues(t)
		if err := n.Object.InsertArray(t.Field, vals...); err != nil {
			return Unchanged, "", err
		}
		return Updated, t.Field, nil

	case ArrayInsert:
		vals := arrayValues(t)
		if err := n.Object.InsertArrayIndex(t.Field, t.Index, vals...); err != nil {
			return Unchanged, "", err
		}
		return Updated, t.Field, nil

	case ArrayRemove:
		if err := n.Object.RemoveArrayIndex(t.Field, t.Index); err != nil {
			return Unchanged, "", err
		}
		return Updated, t.Field, nil

	case ArrayTrim:
		n2, err := trimArray(n.Object, t.Field, t.N)
		if err != nil {
			return Unchanged, "", err
		}
		return boolOutcome(n2), t.Field, nil

	case ObjectMeta:
		if err := n.Object.SetMeta(t.Field, t.Meta); err != nil {
			return Unchanged, "", err
		}
		return Updated, "", nil

	case EdgeMeta:
		meta, ok := n.Edges.GetFieldEdgeMetadata(t.EdgeField, t.EdgeDst, true)
		if !ok {
			return Unchanged, "", nil
		}
		var changed bool
		var err error
		switch t.Scalar {
		case ScalarLong:
			changed, err = meta.SetLongLong(t.Field, t.Long, object.WriteSet)
		case ScalarDouble:
			changed, err = meta.SetDouble(t.Field, t.Double, object.WriteSet)
		case ScalarString:
			changed, err = meta.SetString(t.Field, t.Str, object.WriteSet)
		}
		if err != nil {
			return Unchanged, "", err
		}
		return boolOutcome(changed), "", nil

	default:
		return Unchanged, "", nil
	}
}

func boolOutcome(changed bool) Outcome {
	if changed {
		return Updated
	}
	return Unchanged
}

func toIDs(members []string) []nodeid.ID {
	out := make([]nodeid.ID, len(members))
	for i, m := range members {
		out[i] = nodeid.FromString(m)
	}
	return out
}

func arrayValues(t Triplet) []object.Value {
	switch t.Scalar {
	case ScalarLong:
		return []object.Value{object.LongValue(t.Long)}
	case ScalarDouble:
		return []object.Value{object.DoubleValue(t.Double)}
	default:
		return []object.Value{object.StringValue(t.Str)}
	}
}

// trimArray keeps only the last n elements of the array at path (the
// "array queue-trim" triplet of §4.6), reporting whether it changed length.
func trimArray(o *object.Object, path string, n int) (bool, error) {
	length, err := o.GetArrayLen(path)
	if err != nil {
		return false, err
	}
	if length <= n {
		return false, nil
	}
	drop := length - n
	for i := 0; i < drop; i++ {
		if err := o.RemoveArrayIndex(path, 0); err != nil {
			return false, err
		}
	}
	return true, nil
}
