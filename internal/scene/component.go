package scene

import "reflect"

// SetComponent attaches c to o, replacing any component of the same type,
// and returns a pointer to the stored copy. The pointer stays valid for the
// object's lifetime.
func SetComponent[T any](o *Object, c T) *T {
	if o.components == nil {
		o.components = make(map[reflect.Type]any, 4)
	}
	p := &c
	o.components[reflect.TypeFor[T]()] = p
	return p
}

// GetComponent returns o's component of type T.
func GetComponent[T any](o *Object) (*T, bool) {
	c, ok := o.components[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return c.(*T), true
}

func HasComponent[T any](o *Object) bool {
	_, ok := o.components[reflect.TypeFor[T]()]
	return ok
}

// RemoveComponent detaches o's component of type T.
func RemoveComponent[T any](o *Object) bool {
	t := reflect.TypeFor[T]()
	if _, ok := o.components[t]; !ok {
		return false
	}
	delete(o.components, t)
	return true
}
