package token

import "errors"

// errNoRefreshToken is returned when a refresh is attempted before any
// refresh token has been seeded or loaded from settings.
var errNoRefreshToken = errors.New("token: no refresh token available, call Seed first")
