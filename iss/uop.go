package iss

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// u64 reads a UInt64 param, erroring if the slot was typed Bool.
func u64(op string, p UopParam) (uint64, error) {
	if p.IsBool {
		return 0, forceerr.New(forceerr.ConstraintMalformed, op, "expected UInt64 param, got Bool")
	}
	return p.UInt64, nil
}

func uintParam(v uint64) UopParam { return UopParam{UInt64: v} }
func boolParam(v bool) UopParam   { return UopParam{IsBool: true, Bool: v} }

// executeUopForward performs the fixed forward µop arithmetic spec.md §6
// names. It is the single place both Model.ExecuteUop and the solver's
// "validate the final guess" step (spec.md §4.5 step 4) go through, so the
// two can never disagree on semantics.
func executeUopForward(code UopCode, inputs []UopParam) ([]UopParam, error) {
	const op = "iss.executeUopForward"
	switch code {
	case UopAddWithCarry:
		if len(inputs) != 3 {
			return nil, forceerr.New(forceerr.ConstraintMalformed, op, "AddWithCarry needs 3 inputs")
		}
		a, err := u64(op, inputs[0])
		if err != nil {
			return nil, err
		}
		b, err := u64(op, inputs[1])
		if err != nil {
			return nil, err
		}
		carry, err := u64(op, inputs[2])
		if err != nil {
			return nil, err
		}
		return []UopParam{uintParam(a + b + carry)}, nil

	case UopSubWithCarry:
		if len(inputs) != 3 {
			return nil, forceerr.New(forceerr.ConstraintMalformed, op, "SubWithCarry needs 3 inputs")
		}
		minuend, err := u64(op, inputs[0])
		if err != nil {
			return nil, err
		}
		subtrahend, err := u64(op, inputs[1])
		if err != nil {
			return nil, err
		}
		carry, err := u64(op, inputs[2])
		if err != nil {
			return nil, err
		}
		// target = minuend + ^subtrahend + carry, two's-complement
		// borrow form (spec.md §9, resolved open question).
		return []UopParam{uintParam(minuend + ^subtrahend + carry)}, nil

	case UopMulAdd:
		if len(inputs) != 3 {
			return nil, forceerr.New(forceerr.ConstraintMalformed, op, "MulAdd needs 3 inputs")
		}
		m, err := u64(op, inputs[0])
		if err != nil {
			return nil, err
		}
		n, err := u64(op, inputs[1])
		if err != nil {
			return nil, err
		}
		a, err := u64(op, inputs[2])
		if err != nil {
			return nil, err
		}
		return []UopParam{uintParam(m*n + a)}, nil

	case UopMul:
		if len(inputs) != 2 {
			return nil, forceerr.New(forceerr.ConstraintMalformed, op, "Mul needs 2 inputs")
		}
		m, err := u64(op, inputs[0])
		if err != nil {
			return nil, err
		}
		n, err := u64(op, inputs[1])
		if err != nil {
			return nil, err
		}
		return []UopParam{uintParam(m * n)}, nil

	case UopDiv:
		if len(inputs) != 3 {
			return nil, forceerr.New(forceerr.ConstraintMalformed, op, "Div needs 3 inputs (dividend, divisor, signed)")
		}
		dividend, err := u64(op, inputs[0])
		if err != nil {
			return nil, err
		}
		divisor, err := u64(op, inputs[1])
		if err != nil {
			return nil, err
		}
		if !inputs[2].IsBool {
			return nil, forceerr.New(forceerr.ConstraintMalformed, op, "Div's third input must be Bool (signed)")
		}
		if divisor == 0 {
			return nil, forceerr.New(forceerr.IssMismatch, op, "division by zero")
		}
		if inputs[2].Bool {
			return []UopParam{uintParam(uint64(int64(dividend) / int64(divisor)))}, nil
		}
		return []UopParam{uintParam(dividend / divisor)}, nil

	default:
		return nil, forceerr.New(forceerr.ConstraintMalformed, op, "unknown uop code")
	}
}
