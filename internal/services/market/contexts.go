package market

import (
	"errors"
	"fmt"

	"github.com/hxuan190/route-executor/internal/domain"
)

var ErrContextNotFound = errors.New("execution context not found")

// StaticContexts is a ContextResolver backed by a prebuilt map.
type StaticContexts map[domain.StepKey]domain.ExecutionContext

func (s StaticContexts) Resolve(key domain.StepKey) (domain.ExecutionContext, error) {
	ec, ok := s[key]
	if !ok {
		return domain.ExecutionContext{}, fmt.Errorf("%w: %s", ErrContextNotFound, key)
	}
	return ec, nil
}

func (s StaticContexts) Set(key domain.StepKey, ec domain.ExecutionContext) {
	s[key] = ec
}

// ResolverFunc adapts a function to ContextResolver.
type ResolverFunc func(key domain.StepKey) (domain.ExecutionContext, error)

func (f ResolverFunc) Resolve(key domain.StepKey) (domain.ExecutionContext, error) {
	return f(key)
}
