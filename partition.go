package colcluster

import (
	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/radix"
)

func radixRun(col column.Column, bits, offset int, optFns ...func(*radix.Options)) (*radix.Result, error) {
	switch c := col.(type) {
	case *column.Fixed[int8]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[int16]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[int32]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[int64]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[uint8]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[uint16]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[uint32]:
		return radix.Run(c, bits, offset, optFns...)
	case *column.Fixed[uint64]:
		return radix.Run(c, bits, offset, optFns...)
	default:
		return nil, errs.Invalid("cannot radix partition a %s column", col.Kind())
	}
}

func radixBalanced(col column.Column, bits int, optFns ...func(*radix.Options)) (*radix.BalancedResult, error) {
	switch c := col.(type) {
	case *column.Fixed[int8]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[int16]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[int32]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[int64]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[uint8]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[uint16]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[uint32]:
		return radix.Balanced(c, bits, optFns...)
	case *column.Fixed[uint64]:
		return radix.Balanced(c, bits, optFns...)
	default:
		return nil, errs.Invalid("cannot radix partition a %s column", col.Kind())
	}
}
