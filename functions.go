package stackform

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// createCtyFunctionFromGoFunc wraps a plain go function so that it can be
// called from an interpolation expression, only string, integer and bool
// parameters and return values are supported
func createCtyFunctionFromGoFunc(f interface{}) (function.Function, error) {
	rf := reflect.TypeOf(f)
	if rf == nil || rf.Kind() != reflect.Func {
		return function.Function{}, fmt.Errorf("only functions can be registered as interpolation helpers")
	}

	// build the parameters
	params := []function.Parameter{}
	for i := 0; i < rf.NumIn(); i++ {
		fp := rf.In(i)

		switch fp.Kind() {
		case reflect.String:
			params = append(params, function.Parameter{
				Name:             fp.Name(),
				Type:             cty.String,
				AllowDynamicType: true,
			})
		case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
			params = append(params, function.Parameter{
				Name:             fp.Name(),
				Type:             cty.Number,
				AllowDynamicType: true,
			})
		case reflect.Bool:
			params = append(params, function.Parameter{
				Name:             fp.Name(),
				Type:             cty.Bool,
				AllowDynamicType: true,
			})
		default:
			return function.Function{}, fmt.Errorf("type %v is not a valid parameter type, only strings, basic numbers, and booleans are supported", fp.Kind())
		}
	}

	if rf.NumOut() < 1 {
		return function.Function{}, fmt.Errorf("interpolation functions must return a value")
	}

	var outType function.TypeFunc
	outParam := rf.Out(0)
	switch outParam.Kind() {
	case reflect.String:
		outType = function.StaticReturnType(cty.String)
	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
		outType = function.StaticReturnType(cty.Number)
	case reflect.Bool:
		outType = function.StaticReturnType(cty.Bool)
	default:
		return function.Function{}, fmt.Errorf("type %v is not a valid return type, only strings, basic numbers, and booleans are supported", outParam.Kind())
	}

	return function.New(&function.Spec{
		Params: params,
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			// convert the cty values into go values
			in := []reflect.Value{}
			for _, a := range args {
				switch a.Type() {
				case cty.String:
					in = append(in, reflect.ValueOf(a.AsString()))
				case cty.Number:
					bf := a.AsBigFloat()
					val, _ := bf.Int64()
					in = append(in, reflect.ValueOf(int(val)))
				case cty.Bool:
					in = append(in, reflect.ValueOf(a.True()))
				}
			}

			out := reflect.ValueOf(f).Call(in)

			// if the function returns an error as the second value
			// propagate it
			if len(out) > 1 {
				if err, ok := out[1].Interface().(error); ok && err != nil {
					return cty.NullVal(retType), err
				}
			}

			switch retType {
			case cty.Number:
				return cty.NumberIntVal(out[0].Int()), nil
			case cty.String:
				return cty.StringVal(out[0].String()), nil
			case cty.Bool:
				return cty.BoolVal(out[0].Bool()), nil
			}

			return cty.NullVal(retType), nil
		},
		Type: outType,
	}), nil
}
