package object

import "golang.org/x/exp/slices"

// ReplyKind tags the shape a Reply is formatted as on the protocol side.
type ReplyKind uint8

const (
	ReplyNull ReplyKind = iota
	ReplyLong
	ReplyDouble
	ReplyString
	ReplyPairs // nested object: a key/value sequence
	ReplyArray // array or set (SetElemKind set when translated from a Set)
	ReplyOpaque
)

// ReplyPair is one key/value entry of a formatted nested object.
type ReplyPair struct {
	Key   string
	Value Reply
}

// Reply is the protocol-facing shape produced by formatting an Object (or a
// sub-path of one): sets become arrays with their element kind preserved in
// SetElemKind, arrays become arrays, nested objects become key/value
// sequences, and opaque pointers are run through a per-opts callback.
type Reply struct {
	Kind        ReplyKind
	Long        int64
	Double      float64
	Str         string
	Pairs       []ReplyPair
	Items       []Reply
	IsSet       bool
	SetElemKind SetKind
	OpaqueTag   string
}

// OpaqueReplyFunc renders an OpaqueValue into a Reply; callers supply one
// per command since only the collaborator that produced the opaque pointer
// knows how to serialize it.
type OpaqueReplyFunc func(*OpaqueValue) (Reply, error)

func valueToReply(v Value, opaqueFn OpaqueReplyFunc) (Reply, error) {
	switch v.Kind {
	case KindNull:
		return Reply{Kind: ReplyNull}, nil
	case KindLong:
		return Reply{Kind: ReplyLong, Long: v.Long}, nil
	case KindDouble:
		return Reply{Kind: ReplyDouble, Double: v.Double}, nil
	case KindString:
		return Reply{Kind: ReplyString, Str: v.Str}, nil
	case KindObject:
		return objectToReply(v.Obj, opaqueFn)
	case KindSet:
		return setToReply(v, opaqueFn)
	case KindArray:
		items := make([]Reply, len(v.Arr))
		for i, e := range v.Arr {
			r, err := valueToReply(e, opaqueFn)
			if err != nil {
				return Reply{}, err
			}
			items[i] = r
		}
		return Reply{Kind: ReplyArray, Items: items}, nil
	case KindOpaque:
		if opaqueFn == nil {
			return Reply{Kind: ReplyOpaque, OpaqueTag: v.Opaque.TypeTag}, nil
		}
		return opaqueFn(v.Opaque)
	default:
		return Reply{}, ErrWrongType
	}
}

func setToReply(v Value, opaqueFn OpaqueReplyFunc) (Reply, error) {
	out := Reply{Kind: ReplyArray, IsSet: true, SetElemKind: v.SetKind}
	switch v.SetKind {
	case SetString:
		keys := make([]string, 0, len(v.SetStr))
		for k := range v.SetStr {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out.Items = append(out.Items, Reply{Kind: ReplyString, Str: k})
		}
	case SetLong:
		keys := make([]int64, 0, len(v.SetLong))
		for k := range v.SetLong {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out.Items = append(out.Items, Reply{Kind: ReplyLong, Long: k})
		}
	case SetDouble:
		keys := make([]float64, 0, len(v.SetDbl))
		for k := range v.SetDbl {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out.Items = append(out.Items, Reply{Kind: ReplyDouble, Double: k})
		}
	case SetNodeID:
		keys := make([]string, 0, len(v.SetNode))
		for k := range v.SetNode {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		for _, k := range keys {
			out.Items = append(out.Items, Reply{Kind: ReplyString, Str: k})
		}
	}
	return out, nil
}

func objectToReply(o *Object, opaqueFn OpaqueReplyFunc) (Reply, error) {
	out := Reply{Kind: ReplyPairs}
	var err error
	o.Each(func(key string, v Value) bool {
		var r Reply
		r, err = valueToReply(v, opaqueFn)
		if err != nil {
			return false
		}
		out.Pairs = append(out.Pairs, ReplyPair{Key: key, Value: r})
		return true
	})
	return out, err
}

// Reply formats the value at path (or the whole object if path is empty) as
// a protocol Reply. A wildcard segment "*" in the middle of path expands to
// every key of the enclosing object at that point, producing a ReplyPairs
// reply with one pair per key.
func (o *Object) Reply(path string, opaqueFn OpaqueReplyFunc) (Reply, error) {
	if path == "" {
		return objectToReply(o, opaqueFn)
	}
	return replyPath(o, splitPath(path), opaqueFn)
}

func replyPath(o *Object, segs []string, opaqueFn OpaqueReplyFunc) (Reply, error) {
	if len(segs) == 0 {
		return objectToReply(o, opaqueFn)
	}
	seg := segs[0]
	if seg == "*" {
		out := Reply{Kind: ReplyPairs}
		var err error
		o.Each(func(key string, v Value) bool {
			var r Reply
			if len(segs) == 1 {
				r, err = valueToReply(v, opaqueFn)
			} else if v.Kind == KindObject {
				r, err = replyPath(v.Obj, segs[1:], opaqueFn)
			} else {
				err = ErrWrongType
			}
			if err != nil {
				return false
			}
			out.Pairs = append(out.Pairs, ReplyPair{Key: key, Value: r})
			return true
		})
		return out, err
	}
	v, ok := o.Get(seg)
	if !ok {
		return Reply{Kind: ReplyNull}, nil
	}
	if len(segs) == 1 {
		return valueToReply(v, opaqueFn)
	}
	if v.Kind != KindObject {
		return Reply{}, ErrWrongType
	}
	return replyPath(v.Obj, segs[1:], opaqueFn)
}
