package compiler

import "github.com/satishbabariya/docql/query/ast"

// Errors returned by Compile, re-exported for callers that only import the compiler.
var (
	ErrUnsupportedOperator = ast.ErrUnsupportedOperator
	ErrEmptyGroup          = ast.ErrEmptyGroup
	ErrInvalidTable        = ast.ErrInvalidTable
)
