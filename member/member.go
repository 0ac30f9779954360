// Package member describes the named, readable members of a live value.
//
// The parse engine consults an Introspector once navigation reaches a leaf
// node: the rest of the expression then walks the members of the leaf's
// payload.
package member

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

type Kind int

const (
	Field Kind = iota
	Method
	Key
)

func (k Kind) String() string {
	switch k {
	case Field:
		return "field"
	case Method:
		return "method"
	case Key:
		return "key"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Member is one named member of a value.
type Member struct {
	Name     string
	Kind     Kind
	Exported bool
	Type     string
	read     func() (any, error)
}

// New returns a member whose value is produced by read.
func New(name string, kind Kind, typ string, read func() (any, error)) Member {
	return Member{Name: name, Kind: kind, Exported: true, Type: typ, read: read}
}

// Read returns the member's value, invoking it if it is a method.
func (m Member) Read() (v any, err error) {
	if m.read == nil {
		return nil, &ReadError{Member: m.Name, Err: fmt.Errorf("member is not readable")}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &ReadError{Member: m.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err = m.read()
	if err != nil {
		return nil, &ReadError{Member: m.Name, Err: err}
	}
	return v, nil
}

// ReadError reports a failure to read or invoke a member.
type ReadError struct {
	Member string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.Member, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Introspector enumerates the members of a value.
type Introspector interface {
	Members(v any) ([]Member, error)
}

// Reflect lists members through reflection: exported struct fields, the
// string keys of maps, and exported methods that take no arguments and
// return a value, optionally followed by an error.
type Reflect struct{}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (Reflect) Members(v any) ([]Member, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	var members []Member

	base := rv
	for base.Kind() == reflect.Pointer || base.Kind() == reflect.Interface {
		if base.IsNil() {
			return methods(rv), nil
		}
		base = base.Elem()
	}

	switch base.Kind() {
	case reflect.Struct:
		t := base.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fv := base.Field(i)
			members = append(members, Member{
				Name:     f.Name,
				Kind:     Field,
				Exported: true,
				Type:     f.Type.String(),
				read:     func() (any, error) { return fv.Interface(), nil },
			})
		}
	case reflect.Map:
		if base.Type().Key().Kind() == reflect.String {
			keys := base.MapKeys()
			slices.SortFunc(keys, func(a, b reflect.Value) int {
				return strings.Compare(a.String(), b.String())
			})
			for _, k := range keys {
				mv := base.MapIndex(k)
				members = append(members, Member{
					Name:     k.String(),
					Kind:     Key,
					Exported: true,
					Type:     typeName(mv),
					read:     func() (any, error) { return mv.Interface(), nil },
				})
			}
		}
	}

	return append(members, methods(rv)...), nil
}

func methods(rv reflect.Value) []Member {
	var members []Member
	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		mt := m.Type // includes the receiver
		if mt.NumIn() != 1 || mt.NumOut() == 0 || mt.NumOut() > 2 {
			continue
		}
		if mt.NumOut() == 2 && !mt.Out(1).Implements(errorType) {
			continue
		}
		fn := rv.Method(i)
		members = append(members, Member{
			Name:     m.Name,
			Kind:     Method,
			Exported: true,
			Type:     mt.Out(0).String(),
			read: func() (any, error) {
				out := fn.Call(nil)
				if len(out) == 2 && !out[1].IsNil() {
					return nil, out[1].Interface().(error)
				}
				return out[0].Interface(), nil
			},
		})
	}
	return members
}

func typeName(v reflect.Value) string {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return v.Elem().Type().String()
	}
	return v.Type().String()
}
