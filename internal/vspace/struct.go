package vspace

import (
	"fmt"
	"reflect"

	"github.com/pullback-ml/pullback/internal/diag"
)

// structSpace is the derived instance for a struct type, combining the
// per-field instances componentwise.
type structSpace struct {
	typ    reflect.Type
	fields []Space // one per exported field, in declaration order
	index  []int   // field indices matching fields
}

// Struct derives the componentwise instance for struct type t. Every
// exported field must itself have an instance in reg; unexported fields are
// rejected since they cannot be set reflectively.
func Struct(t reflect.Type, reg *Registry) (Space, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("vspace: %s is not a struct type", t)
	}
	s := &structSpace{typ: t}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, &diag.Error{
				Kind:   diag.TypeNotDifferentiable,
				Type:   t,
				Detail: fmt.Sprintf("unexported field %s", f.Name),
			}
		}
		fs, ok := reg.Lookup(f.Type)
		if !ok {
			return nil, &diag.Error{
				Kind:   diag.TypeNotDifferentiable,
				Type:   f.Type,
				Detail: fmt.Sprintf("field %s.%s has no vector-space instance", t.Name(), f.Name),
			}
		}
		s.fields = append(s.fields, fs)
		s.index = append(s.index, i)
	}
	return s, nil
}

// RegisterStruct derives and registers the componentwise instance for the
// struct type T.
func RegisterStruct[T any](reg *Registry) error {
	var zero T
	t := reflect.TypeOf(zero)
	s, err := Struct(t, reg)
	if err != nil {
		return err
	}
	return reg.Register(t, s)
}

func (s *structSpace) Zero() any {
	v := reflect.New(s.typ).Elem()
	for k, i := range s.index {
		v.Field(i).Set(reflect.ValueOf(s.fields[k].Zero()))
	}
	return v.Interface()
}

func (s *structSpace) Add(a, b any) any {
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	out := reflect.New(s.typ).Elem()
	for k, i := range s.index {
		sum := s.fields[k].Add(av.Field(i).Interface(), bv.Field(i).Interface())
		out.Field(i).Set(reflect.ValueOf(sum))
	}
	return out.Interface()
}
