// internal/codicent/refreshing.go
package codicent

import (
	"context"
	"errors"

	"github.com/izaxon/codicent-cli/internal/domain"
)

// AuthExpiredError is returned when both the access token and refresh token are
// invalid, and interactive re-authentication is required.
type AuthExpiredError struct{}

func (e *AuthExpiredError) Error() string {
	return "codicent session expired: re-authentication required"
}

// RefreshingPoster wraps a MessagePoster and transparently handles 401 errors
// by attempting a silent token refresh. If refresh fails, it returns AuthExpiredError.
type RefreshingPoster struct {
	inner       domain.MessagePoster
	refreshFn   func(context.Context) (string, error)
	updateToken func(string)
}

// Ensure RefreshingPoster implements MessagePoster.
var _ domain.MessagePoster = (*RefreshingPoster)(nil)

// NewRefreshingPoster creates a RefreshingPoster.
// refreshFn is called on 401 to attempt a silent token refresh; returns new access token.
// updateToken is called after successful refresh to inject the new token into the client.
func NewRefreshingPoster(
	inner domain.MessagePoster,
	refreshFn func(context.Context) (string, error),
	updateToken func(string),
) *RefreshingPoster {
	return &RefreshingPoster{
		inner:       inner,
		refreshFn:   refreshFn,
		updateToken: updateToken,
	}
}

func (rp *RefreshingPoster) PostMessage(ctx context.Context, content string, tags []string) (domain.Message, error) {
	result, err := rp.inner.PostMessage(ctx, content, tags)
	if err != nil && errors.Is(err, domain.ErrUnauthorized) {
		newToken, refreshErr := rp.refreshFn(ctx)
		if refreshErr != nil {
			return domain.Message{}, &AuthExpiredError{}
		}
		rp.updateToken(newToken)
		return rp.inner.PostMessage(ctx, content, tags)
	}
	return result, err
}
