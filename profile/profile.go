// Package profile reads and updates the logged-in user's own profile data.
package profile

import (
	"context"
	"net/http"

	"github.com/clingclang/clingclang/apiclient"
	"github.com/clingclang/clingclang/authmodel"
	"github.com/clingclang/clingclang/users"
	"github.com/pkg/errors"
)

// Client calls the /api/users/me endpoints through the request pipeline.
type Client struct {
	api *apiclient.Client
}

// NewClient creates a profile Client
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// Me fetches the current user's profile from the server.
func (c *Client) Me(ctx context.Context) (users.Profile, error) {
	var p users.Profile
	if err := c.api.DoJSON(ctx, http.MethodGet, authmodel.RouteUsersMe, nil, &p); err != nil {
		return users.Profile{}, errors.Wrap(err, "[profile Me]")
	}
	return p, nil
}

// Location returns the user's saved location. The server answers 404, or 403
// for accounts that may not set one yet, when there is none; both come back
// as nil with no error.
func (c *Client) Location(ctx context.Context) (*users.Location, error) {
	var loc users.Location
	err := c.api.DoJSON(ctx, http.MethodGet, authmodel.RouteUsersMeLocation, nil, &loc)
	if apiclient.IsStatus(err, http.StatusNotFound, http.StatusForbidden) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[profile Location]")
	}
	return &loc, nil
}

// UpdateLocation saves loc as the user's location.
func (c *Client) UpdateLocation(ctx context.Context, loc users.Location) error {
	if err := loc.Validate(); err != nil {
		return errors.Wrap(err, "[profile UpdateLocation]")
	}
	if err := c.api.DoJSON(ctx, http.MethodPut, authmodel.RouteUsersMeLocation, loc, nil); err != nil {
		return errors.Wrap(err, "[profile UpdateLocation]")
	}
	return nil
}
