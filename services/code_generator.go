package services

import (
	"context"
	"fmt"

	"github.com/rickyzatnika/new-spinner/metrics"
	"github.com/rickyzatnika/new-spinner/utils"
)

const DefaultCodeAttempts = 20

// CodeGenerator issues registration codes that are not yet taken.
type CodeGenerator struct {
	MaxAttempts int
	// Random produces a candidate; defaults to utils.RandomCode.
	Random func() (string, error)
}

// Generate draws candidates until taken reports one as free, giving up with
// ErrCodeSpaceExhausted after MaxAttempts. taken may also claim the code (for
// example by inserting the row) so that a lost insert race costs one attempt.
func (g CodeGenerator) Generate(ctx context.Context, taken func(ctx context.Context, code string) (bool, error)) (string, error) {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultCodeAttempts
	}
	random := g.Random
	if random == nil {
		random = utils.RandomCode
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := random()
		if err != nil {
			return "", err
		}
		used, err := taken(ctx, code)
		if err != nil {
			return "", err
		}
		if !used {
			metrics.ObserveCodeAttempts(attempt + 1)
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, attempts)
}
