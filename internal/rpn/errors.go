// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

package rpn

import "errors"

// The error kinds exposed by the evaluator, per spec.md §7 "RPN": callers
// outside this package see only these, never an internal stack-machine
// detail beyond what errors.Is/errors.As need.
var (
	ErrCompilationFailed = errors.New("rpn: compilation failed")
	ErrIllegalOperand    = errors.New("rpn: illegal operand")
	ErrIllegalOpcode     = errors.New("rpn: illegal opcode")
	ErrStackUnderflow    = errors.New("rpn: stack underflow")
	ErrTypeMismatch      = errors.New("rpn: type mismatch")
	ErrRegisterOOB       = errors.New("rpn: register out of bounds")
	ErrDivideByZero      = errors.New("rpn: divide by zero")
)
