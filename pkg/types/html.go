package types

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
)

// HTML accepts markup strings and sanitises them with policy before they are
// stored, so nothing unsafe reaches the remote peer. A nil policy uses
// bluemonday's UGC policy.
func HTML(policy *bluemonday.Policy, opts ...Option) *Scalar {
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return newScalar("HTML", "", func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected markup string, got %s", describe(v))
		}
		return policy.Sanitize(s), nil
	}, opts)
}
