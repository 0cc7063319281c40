package test_utils

import (
	"context"

	"github.com/jeongsan/jeongsan/pkg/operator"
)

// TestOperator is the operator identity used by service tests that exercise
// audited mutations.
var TestOperator = operator.Operator{
	Id:          123,
	Uid:         "test-operator",
	DisplayName: "Test Operator",
}

// WithTestOperator puts the default test operator into the context.
func WithTestOperator(ctx context.Context) context.Context {
	return operator.WithOperator(ctx, TestOperator)
}
