package apiclient

import (
	"context"
	"net/http"

	"github.com/clingclang/clingclang/authmodel"
	"github.com/clingclang/clingclang/events"
	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/metrics"
	"github.com/pkg/errors"
)

const refreshKey = "refresh"

// Refresher exchanges the refresh cookie for a new access token.
type Refresher func(ctx context.Context) (*authmodel.TokenResponse, error)

// credentialAfterExpiry returns the credential a 401'd request should be
// replayed with. sent is the credential that request carried.
func (c *Client) credentialAfterExpiry(ctx context.Context, sent string) (string, error) {
	current, ok := c.store.Credential()
	switch {
	case ok && current != sent:
		// A sibling's refresh already rotated the token.
		metrics.Refreshes.WithLabelValues(metrics.RefreshSkipped).Inc()
		return current, nil
	case !ok && sent != "":
		// Cleared by a failed refresh or a logout that already announced itself.
		metrics.Refreshes.WithLabelValues(metrics.RefreshSkipped).Inc()
		return "", &RefreshFailedError{Err: ErrSessionEnded}
	}
	return c.Refresh(ctx)
}

// Refresh obtains a new access token. Concurrent callers share one refresh
// call and its result. The refresh itself is not cancelled when ctx is; a
// caller whose ctx ends stops waiting and gets the context error.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.Refreshes.WithLabelValues(metrics.RefreshShared).Inc()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "[apiclient Refresh] stopped waiting")
	}
}

// refresh runs once per single-flight group. Success rotates the stored
// credential; failure ends the session and announces it.
func (c *Client) refresh(ctx context.Context) (string, error) {
	tr, err := c.refresher(ctx)
	if err == nil && tr.AccessToken == "" {
		err = apperrors.Wrapf(apperrors.ErrInvalidToken, "refresh response without accessToken")
	}
	if err != nil {
		metrics.Refreshes.WithLabelValues(metrics.RefreshFailed).Inc()
		c.logger.Warn().Err(err).Msg("access token refresh failed, ending session")
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Error().Err(clearErr).Msg("failed to clear session after refresh failure")
		}
		c.bus.Emit(events.KindLogout, Message(err, authmodel.MessageRefreshInvalid), events.SeverityError)
		return "", &RefreshFailedError{Err: err}
	}

	rotated, err := c.store.Rotate(tr.AccessToken, tr.User)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to persist refreshed access token")
	} else if !rotated {
		c.logger.Debug().Msg("session cleared during refresh, new token not stored")
	}
	metrics.Refreshes.WithLabelValues(metrics.RefreshSucceeded).Inc()
	c.logger.Info().Msg("access token refreshed")
	return tr.AccessToken, nil
}

// refreshFromCookie calls POST /api/auth/refresh. The refresh token travels
// in the cookie jar; no bearer credential is attached.
func (c *Client) refreshFromCookie(ctx context.Context) (*authmodel.TokenResponse, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: authmodel.RouteAuthRefresh}, "")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newApplicationError(resp)
	}
	var tr authmodel.TokenResponse
	if err := resp.DecodeJSON(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// FetchToken calls the refresh endpoint once, outside single flight and with
// no effect on the store or the bus. It exists for startup session restore,
// where a missing refresh cookie is not a logout.
func (c *Client) FetchToken(ctx context.Context) (*authmodel.TokenResponse, error) {
	tr, err := c.refresher(ctx)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "refresh response without accessToken")
	}
	return tr, nil
}
