package websocket

import (
	"fmt"
	"reflect"
)

// extractAck splits a trailing acknowledgement callback off the event args.
func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	ack = wrapAck(datas[len(datas)-1])
	if ack == nil {
		return nil, datas
	}
	return ack, datas[:len(datas)-1]
}

// wrapAck adapts whatever callback signature the socket library handed over
// to a single ackInvoker.
func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}

	value := reflect.ValueOf(candidate)
	if value.Kind() != reflect.Func {
		return nil
	}

	typ := value.Type()
	return func(err error, payload map[string]any) {
		args := buildAckArgs(typ, err, payload)
		if typ.IsVariadic() {
			value.CallSlice(args)
			return
		}
		value.Call(args)
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// buildAckArgs fills the callback parameters. A parameter typed error gets
// err and the others get the payload; socket.io itself hands out
// func([]any, error). Signatures without an error parameter are filled
// positionally: (err, payload), or (payload) for a single parameter.
func buildAckArgs(typ reflect.Type, err error, payload map[string]any) []reflect.Value {
	numIn := typ.NumIn()
	args := make([]reflect.Value, numIn)

	hasErrorParam := false
	for i := 0; i < numIn; i++ {
		if typ.In(i) == errorType {
			hasErrorParam = true
		}
	}

	for i := 0; i < numIn; i++ {
		var argValue any
		switch {
		case typ.In(i) == errorType:
			argValue = err
		case hasErrorParam, numIn == 1:
			argValue = payload
		case i == 0:
			argValue = err
		case i == 1:
			argValue = payload
		}
		args[i] = coerceValue(argValue, typ.In(i))
	}
	return args
}

func coerceValue(value any, targetType reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(targetType)
	}

	rv := reflect.ValueOf(value)
	if targetType.Kind() == reflect.Slice && targetType.Elem().Kind() == reflect.Interface &&
		targetType.Elem().NumMethod() == 0 && rv.Kind() != reflect.Slice {
		// socket.io sends each slice element as one ack argument.
		list := reflect.MakeSlice(targetType, 1, 1)
		list.Index(0).Set(rv)
		return list
	}
	switch {
	case rv.Type().AssignableTo(targetType):
		return rv
	case targetType.Kind() == reflect.Interface && targetType.NumMethod() == 0:
		return rv
	case targetType.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(value)).Convert(targetType)
	case rv.Type().ConvertibleTo(targetType):
		return rv.Convert(targetType)
	}

	if payload, ok := value.(map[string]any); ok &&
		targetType.Kind() == reflect.Map && targetType.Key().Kind() == reflect.String {
		result := reflect.MakeMapWithSize(targetType, len(payload))
		for key, val := range payload {
			v := reflect.ValueOf(val)
			if !v.IsValid() {
				continue
			}
			if !v.Type().AssignableTo(targetType.Elem()) {
				if !v.Type().ConvertibleTo(targetType.Elem()) {
					continue
				}
				v = v.Convert(targetType.Elem())
			}
			result.SetMapIndex(reflect.ValueOf(key).Convert(targetType.Key()), v)
		}
		return result
	}
	return reflect.Zero(targetType)
}
