package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/tickflow/internal/ir"
)

// toIR converts a concrete CUE value to an IRValue. Floats are rejected.
func toIR(v cue.Value, field string) (ir.IRValue, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{
			Code:    ErrCodeGeneric,
			Field:   field,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.NullKind:
		return ir.Null, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return ir.IRInt(i), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return ir.IRString(s), nil
	case cue.FloatKind:
		return nil, floatError(v, field)
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := toIR(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			elem, err := toIR(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Code:    ErrCodeGeneric,
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func floatError(v cue.Value, field string) error {
	return &CompileError{
		Code:    ErrCodeFloatValue,
		Field:   field,
		Message: "float values are forbidden - use int instead",
		Pos:     v.Pos(),
	}
}
