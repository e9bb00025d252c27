package gc

import "reflect"

// tracedRef is satisfied by every HeapRef[T] regardless of T. ReflectTrace
// uses it to recognize a traceable field without needing to know T itself,
// the same type-erasure trick objheap.Header uses for its trace closure,
// applied here to reflect.Value instead of a bound function.
type tracedRef interface {
	gcTraceSelf(v *Visitor)
}

func (r HeapRef[T]) gcTraceSelf(v *Visitor) {
	Visit(v, r)
}

// ReflectTrace walks payload's fields with reflect, visiting every
// HeapRef[*]-shaped value it finds, including ones nested inside
// pointers, interfaces, slices, arrays, structs, and map values. It is
// the conservative counterpart to a hand-written GCTrace: slower, and
// unable to distinguish "no references here" from "references this walk
// doesn't know how to reach". Unexported struct fields are skipped
// (reflect cannot hand them out through Interface), so a HeapRef held in
// an unexported field, or anywhere beneath one, is not visited; map keys
// are not walked either.
//
// Typical use is inside a hand-written GCTrace for a type that would
// rather delegate than enumerate its own fields:
//
//	func (t Thing) GCTrace(v *gc.Visitor) { gc.ReflectTrace(v, t) }
func ReflectTrace(v *Visitor, payload any) {
	reflectTraceValue(v, reflect.ValueOf(payload))
}

func reflectTraceValue(v *Visitor, val reflect.Value) {
	if !val.IsValid() {
		return
	}
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !val.IsNil() {
			reflectTraceValue(v, val.Elem())
		}
	case reflect.Struct:
		if val.CanInterface() {
			if tr, ok := val.Interface().(tracedRef); ok {
				tr.gcTraceSelf(v)
				return
			}
		}
		for i := 0; i < val.NumField(); i++ {
			f := val.Field(i)
			if !f.CanInterface() {
				continue
			}
			reflectTraceValue(v, f)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < val.Len(); i++ {
			reflectTraceValue(v, val.Index(i))
		}
	case reflect.Map:
		iter := val.MapRange()
		for iter.Next() {
			reflectTraceValue(v, iter.Value())
		}
	}
}
