package fhirpath

import (
	"fmt"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/ast"
)

// compile parses a FHIRPath expression into a compiled Expression.
func compile(expr string) (*Expression, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}

	tree, err := ast.Parse(expr)
	if err != nil {
		return nil, err
	}

	return &Expression{
		source: expr,
		tree:   ast.Optimize(tree),
	}, nil
}
