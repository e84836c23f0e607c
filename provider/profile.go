package provider

import (
	"context"
	"encoding/json"
	"net/http"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/pkg/errors"
)

// Profile is the identity the provider reports for an access token.
type Profile struct {
	ProviderUserID string  `json:"providerUserId"`
	DisplayName    string  `json:"displayName"`
	Handle         string  `json:"handle"`
	Email          *string `json:"email"`
	FollowerCount  int     `json:"followerCount"`
	FollowingCount int     `json:"followingCount"`
}

// profileResponse mirrors the verify_credentials payload. Required fields are
// pointers so that absence can be told apart from an empty value.
type profileResponse struct {
	IDStr          *string `json:"id_str"`
	Name           *string `json:"name"`
	ScreenName     *string `json:"screen_name"`
	Email          *string `json:"email"`
	FollowersCount int     `json:"followers_count"`
	FriendsCount   int     `json:"friends_count"`
}

// FetchProfile reads the profile of the user behind at. Network failures, 429
// and 5xx are retried once after the backoff; other 4xx are not.
func (c *Client) FetchProfile(ctx context.Context, at *token.AccessToken) (*Profile, error) {
	res, err := c.send(ctx, endpointProfile, oauth1.Request{
		Method:      http.MethodGet,
		URL:         c.endpoints.ProfileURL,
		Params:      c.endpoints.ProfileParams,
		Token:       at.Token,
		TokenSecret: at.TokenSecret.Value(),
	}, true)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, errors.Wrapf(autherrors.ErrProviderUnavailable, "profile endpoint returned %d", res.status)
	}
	return ParseProfile(res.body)
}

// ParseProfile maps a verify_credentials style JSON body onto Profile.
func ParseProfile(body []byte) (*Profile, error) {
	var raw profileResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrapf(autherrors.ErrIncompleteProfile, "decode profile: %v", err)
	}

	var missing []string
	if raw.IDStr == nil || *raw.IDStr == "" {
		missing = append(missing, "id_str")
	}
	if raw.Name == nil {
		missing = append(missing, "name")
	}
	if raw.ScreenName == nil || *raw.ScreenName == "" {
		missing = append(missing, "screen_name")
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(autherrors.ErrIncompleteProfile, "profile missing %v", missing)
	}

	profile := &Profile{
		ProviderUserID: *raw.IDStr,
		DisplayName:    *raw.Name,
		Handle:         *raw.ScreenName,
		FollowerCount:  raw.FollowersCount,
		FollowingCount: raw.FriendsCount,
	}
	if raw.Email != nil && *raw.Email != "" {
		profile.Email = raw.Email
	}
	return profile, nil
}
