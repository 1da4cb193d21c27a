package events

import "reflect"

// sameInstance reports whether a and b refer to the same allocation. Only
// reference-like kinds have an identity: pointers, maps, channels and slices
// (same backing array and length). Values boxed in interfaces are unwrapped
// first. Functions are left out because their reflected pointer identifies
// code, not a closure instance.
func sameInstance(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}

// hasIdentity reports whether values of v's dynamic type can be matched by
// sameInstance.
func hasIdentity(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer, reflect.Slice:
		return true
	default:
		return false
	}
}

func deepEqual[E any](a, b E) bool {
	return reflect.DeepEqual(a, b)
}
