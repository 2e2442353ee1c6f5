package vecmatch

import "github.com/kailas-cloud/vecmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrMalformedEvent         = domain.ErrMalformedEvent
	ErrInvalidProfile         = domain.ErrInvalidProfile
	ErrSelfRelation           = domain.ErrSelfRelation
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// IsPermanent reports whether retrying the call can never succeed.
func IsPermanent(err error) bool {
	return domain.IsPermanent(err)
}
