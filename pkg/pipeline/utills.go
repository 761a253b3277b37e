package pipeline

import (
	"errors"
	"fmt"
	"reflect"
)

func IsNil(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// GetErrors flattens an errors.Join result.
func GetErrors(err error) []error {
	if IsNil(err) {
		return []error{}
	}

	e, ok := err.(interface{ Unwrap() []error })
	if ok {
		return e.Unwrap()
	}

	return []error{err}
}

// JoinErrors joins non-nil errors, flattening previously joined ones.
func JoinErrors(errs ...error) error {
	var all []error
	for _, err := range errs {
		all = append(all, GetErrors(err)...)
	}
	if len(all) == 1 {
		return all[0]
	}
	return errors.Join(all...)
}

// ValveName returns the String of a valve, or its type name.
func ValveName(v Valve) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return fmt.Sprintf("%T", v)
	}
	return t.Name()
}
