// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package values

// BinaryOp is a binary operator
type BinaryOp int

// Binary operators, by category
const (
	// Comparison
	Equal BinaryOp = iota
	NotEqual
	Identical
	NotIdentical
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	// Arithmetic
	Add
	Sub
	Mul
	Div
	Mod
	// Logical
	And
	Or
	Xor
	// Bitwise
	BitAnd
	BitOr
	BitXor
	ShiftLeft
	ShiftRight
)

var binaryOps = map[string]BinaryOp{
	"==": Equal, "!=": NotEqual, "<>": NotEqual, "===": Identical, "!==": NotIdentical,
	"<": LessThan, "<=": LessOrEqual, ">": GreaterThan, ">=": GreaterOrEqual,
	"+": Add, "-": Sub, "*": Mul, "/": Div, "%": Mod,
	"&&": And, "and": And, "||": Or, "or": Or, "xor": Xor,
	"&": BitAnd, "|": BitOr, "^": BitXor, "<<": ShiftLeft, ">>": ShiftRight,
}

// ParseBinaryOp returns the operator denoted by the PHP token s. Concatenation is not a binary operator of the
// lattice: it is handled by Concat.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	op, ok := binaryOps[s]
	return op, ok
}

func (op BinaryOp) String() string {
	for s, o := range binaryOps {
		if o == op && s != "<>" && s != "and" && s != "or" {
			return s
		}
	}
	return "?"
}

// IsComparison returns true for the comparison operators
func (op BinaryOp) IsComparison() bool { return op <= GreaterOrEqual }

// IsArithmetic returns true for + - * / %
func (op BinaryOp) IsArithmetic() bool { return op >= Add && op <= Mod }

// IsLogical returns true for && || xor
func (op BinaryOp) IsLogical() bool { return op >= And && op <= Xor }

// IsBitwise returns true for & | ^ << >>
func (op BinaryOp) IsBitwise() bool { return op >= BitAnd }

// Binary evaluates left op right. The evaluation dispatches first on the variant of the left operand, into a function
// specialized for that variant, which then dispatches on the variant of the right operand.
//
// Binary panics with a *FatalError when an operand is a long integer.
func Binary(op BinaryOp, left, right Value) Result {
	switch l := left.(type) {
	case Long, LongInterval, AnyLongint:
		fatalf("long integer operand %s of %s is not supported", left, op)
	case Object:
		return objectLeft(op, l, right)
	case AnyObject:
		return objectLeft(op, l, right)
	case Array:
		return arrayLeft(op, l, right)
	case AnyArray:
		return arrayLeft(op, l, right)
	case AnyCompound:
		return compoundLeft(op, right)
	case Function, Native, Type, Info:
		return withIssue(UnsupportedOperand, "%s used as an operand", left).Add(AnyValue{})
	}
	return scalarLeft(op, left, right)
}

// scalarLeft evaluates op for a scalar (concrete, interval or abstract) left operand
func scalarLeft(op BinaryOp, left Value, right Value) Result {
	switch r := right.(type) {
	case Long, LongInterval, AnyLongint:
		fatalf("long integer operand %s of %s is not supported", right, op)
	case Object:
		return scalarObject(op, left, r)
	case AnyObject:
		return scalarObject(op, left, r)
	case Array, AnyArray:
		return scalarArray(op, left, right)
	case AnyCompound:
		return compoundRight(op, left)
	case Function, Native, Type, Info:
		return withIssue(UnsupportedOperand, "%s used as an operand", right).Add(AnyValue{})
	}
	return scalars(op, left, right)
}

// scalars evaluates op on two scalar operands
func scalars(op BinaryOp, left, right Value) Result {
	switch {
	case op.IsComparison():
		return Of(compareScalars(op, left, right))
	case op.IsArithmetic():
		return arithmetic(op, left, right)
	case op.IsLogical():
		return Of(logical(op, left, right))
	default:
		return bitwise(op, left, right)
	}
}

// objectLeft evaluates op when the left operand is an object (concrete or abstract)
func objectLeft(op BinaryOp, left Value, right Value) Result {
	switch right.(type) {
	case Long, LongInterval, AnyLongint:
		fatalf("long integer operand %s of %s is not supported", right, op)
	case Object, AnyObject:
		return objects(op, left, right)
	case AnyCompound, AnyValue:
		return mixedCompound(op, left, right)
	case Array, AnyArray:
		return differentTypes(op, left, right)
	}
	// right is a scalar
	return objectScalar(op, left, right, false)
}

// scalarObject evaluates op when the right operand is an object, reusing the object-scalar rules with swapped
// operands
func scalarObject(op BinaryOp, left Value, right Value) Result {
	if _, ok := left.(AnyValue); ok {
		return mixedCompound(op, left, right)
	}
	return objectScalar(op, right, left, true)
}

// objectScalar evaluates op between an object obj and a scalar. swapped is true when the object is the right
// operand.
func objectScalar(op BinaryOp, obj Value, scalar Value, swapped bool) Result {
	switch op {
	case Identical:
		return Of(Boolean(false))
	case NotIdentical:
		return Of(Boolean(true))
	case Equal, NotEqual:
		// objects are converted to true when compared to booleans and null
		if TypesOf(scalar)&^(TBool|TNull) == 0 {
			b, known := ToBoolean(scalar)
			if !known {
				return Of(AnyBoolean{})
			}
			return Of(Boolean(b == (op == Equal)))
		}
		return withIssue(ObjectConversion, "object compared to %s", scalar).Add(AnyBoolean{})
	}
	if op.IsComparison() {
		return withIssue(ObjectConversion, "object compared to %s", scalar).Add(AnyBoolean{})
	}
	if op.IsLogical() {
		if swapped {
			return Of(logical(op, scalar, obj))
		}
		return Of(logical(op, obj, scalar))
	}
	if swapped {
		return numericOperands(op, scalar, obj)
	}
	return numericOperands(op, obj, scalar)
}

// objects evaluates op between two objects
func objects(op BinaryOp, left, right Value) Result {
	lo, lok := left.(Object)
	ro, rok := right.(Object)
	same := lok && rok && lo == ro && !lo.Summary
	different := lok && rok && (lo.Class != ro.Class || lo.Site != ro.Site)
	switch op {
	case Identical, NotIdentical:
		switch {
		case same:
			return Of(Boolean(op == Identical))
		case different:
			return Of(Boolean(op == NotIdentical))
		}
		return Of(AnyBoolean{})
	case Equal, NotEqual:
		if same {
			return Of(Boolean(op == Equal))
		}
		if lok && rok && lo.Class != ro.Class {
			return Of(Boolean(op == NotEqual))
		}
		return Of(AnyBoolean{})
	}
	if op.IsComparison() {
		return Of(AnyBoolean{})
	}
	if op.IsLogical() {
		return Of(logical(op, left, right))
	}
	return numericOperands(op, left, right)
}

// arrayLeft evaluates op when the left operand is an array
func arrayLeft(op BinaryOp, left Value, right Value) Result {
	switch right.(type) {
	case Long, LongInterval, AnyLongint:
		fatalf("long integer operand %s of %s is not supported", right, op)
	case Array, AnyArray:
		return arrays(op, left, right)
	case AnyCompound, AnyValue:
		return mixedCompound(op, left, right)
	case Object, AnyObject:
		return differentTypes(op, left, right)
	}
	return arrayScalar(op, left, right)
}

// scalarArray evaluates op when the right operand is an array and the left a scalar
func scalarArray(op BinaryOp, left Value, right Value) Result {
	if _, ok := left.(AnyValue); ok {
		return mixedCompound(op, left, right)
	}
	return arrayScalar(op, left, right)
}

func arrayScalar(op BinaryOp, left, right Value) Result {
	switch {
	case op == Identical:
		return Of(Boolean(false))
	case op == NotIdentical:
		return Of(Boolean(true))
	case op.IsComparison():
		return Of(AnyBoolean{})
	case op.IsLogical():
		return Of(logical(op, left, right))
	}
	return numericOperands(op, left, right)
}

// arrays evaluates op between two arrays
func arrays(op BinaryOp, left, right Value) Result {
	la, lok := left.(Array)
	ra, rok := right.(Array)
	same := lok && rok && la.Owner == ra.Owner
	switch {
	case (op == Identical || op == Equal) && same:
		return Of(Boolean(true))
	case (op == NotIdentical || op == NotEqual) && same:
		return Of(Boolean(false))
	case op.IsComparison():
		return Of(AnyBoolean{})
	case op.IsLogical():
		return Of(logical(op, left, right))
	case op == Add:
		// array union
		return Of(AnyArray{})
	}
	return withIssue(ArrayConversion, "unsupported operand types: array %s array", op).Add(AnyNumeric{})
}

// differentTypes evaluates op between an array and an object
func differentTypes(op BinaryOp, left, right Value) Result {
	switch {
	case op == Identical:
		return Of(Boolean(false))
	case op == NotIdentical:
		return Of(Boolean(true))
	case op.IsComparison():
		return Of(AnyBoolean{})
	case op.IsLogical():
		return Of(logical(op, left, right))
	}
	return numericOperands(op, left, right)
}

// compoundLeft evaluates op when the left operand is any array or object
func compoundLeft(op BinaryOp, right Value) Result {
	switch right.(type) {
	case Long, LongInterval, AnyLongint:
		fatalf("long integer operand %s of %s is not supported", right, op)
	}
	return mixedCompound(op, AnyCompound{}, right)
}

// compoundRight evaluates op when the right operand is any array or object, and the left a scalar
func compoundRight(op BinaryOp, left Value) Result {
	return mixedCompound(op, left, AnyCompound{})
}

// mixedCompound evaluates op when an operand is a compound value whose exact type is unknown
func mixedCompound(op BinaryOp, left, right Value) Result {
	switch {
	case op == Identical || op == NotIdentical:
		if TypesOf(left)&TypesOf(right) == 0 {
			return Of(Boolean(op == NotIdentical))
		}
		return Of(AnyBoolean{})
	case op.IsComparison():
		return Of(AnyBoolean{})
	case op.IsLogical():
		return Of(logical(op, left, right))
	}
	return numericOperands(op, left, right)
}

// numericOperands evaluates an arithmetic or bitwise operator on operands converted to numbers
func numericOperands(op BinaryOp, left, right Value) Result {
	if op.IsArithmetic() {
		return arithmetic(op, left, right)
	}
	return bitwise(op, left, right)
}
