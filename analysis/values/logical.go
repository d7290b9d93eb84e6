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

// logical evaluates && || xor on the boolean conversions of the operands
func logical(op BinaryOp, left, right Value) Value {
	lb, lok := ToBoolean(left)
	rb, rok := ToBoolean(right)
	switch op {
	case And:
		if (lok && !lb) || (rok && !rb) {
			return Boolean(false)
		}
		if lok && rok {
			return Boolean(true)
		}
	case Or:
		if (lok && lb) || (rok && rb) {
			return Boolean(true)
		}
		if lok && rok {
			return Boolean(false)
		}
	default:
		if lok && rok {
			return Boolean(lb != rb)
		}
	}
	return AnyBoolean{}
}

// bitwise evaluates & | ^ << >> on the integer conversions of the operands. & | ^ on two strings operate on
// the bytes of the strings.
func bitwise(op BinaryOp, left, right Value) Result {
	if ls, ok := left.(String); ok && op <= BitXor {
		if rs, ok := right.(String); ok {
			return Of(bytewise(op, string(ls), string(rs)))
		}
	}
	lr, rr := ToInteger(left), ToInteger(right)
	res := Result{Issues: append(append([]Issue{}, lr.Issues...), rr.Issues...)}
	a, aok := lr.Values[0].(Integer)
	b, bok := rr.Values[0].(Integer)
	if !aok || !bok {
		if (op == ShiftLeft || op == ShiftRight) && bok && b < 0 {
			res.Issues = append(res.Issues, Issue{NegativeShift, "bit shift by negative number"})
		}
		return res.Add(AnyInteger{})
	}
	switch op {
	case BitAnd:
		return res.Add(a & b)
	case BitOr:
		return res.Add(a | b)
	case BitXor:
		return res.Add(a ^ b)
	}
	if b < 0 {
		res.Issues = append(res.Issues, Issue{NegativeShift, "bit shift by negative number"})
		return res.Add(Boolean(false))
	}
	if op == ShiftLeft {
		if b >= 64 {
			return res.Add(Integer(0))
		}
		return res.Add(a << uint(b))
	}
	if b >= 64 {
		if a < 0 {
			return res.Add(Integer(-1))
		}
		return res.Add(Integer(0))
	}
	return res.Add(a >> uint(b))
}

func bytewise(op BinaryOp, a, b string) Value {
	// | pads the shorter string, & and ^ truncate to the shorter string
	n := len(a)
	if (op == BitOr) == (len(b) > n) {
		n = len(b)
	}
	out := make([]byte, n)
	for i := range out {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch op {
		case BitAnd:
			out[i] = x & y
		case BitOr:
			out[i] = x | y
		default:
			out[i] = x ^ y
		}
	}
	return String(out)
}

// Concat evaluates left . right through the string conversion of both operands
func Concat(left, right Value) Result {
	l, li := ToString(left)
	r, ri := ToString(right)
	res := Result{Issues: append(append([]Issue{}, li...), ri...)}
	ls, lok := l.(String)
	rs, rok := r.(String)
	if lok && rok {
		return res.Add(ls + rs)
	}
	return res.Add(AnyString{})
}
