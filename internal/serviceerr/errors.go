package serviceerr

import "errors"

var ErrNotFound = errors.New("not found")
var ErrNetwork = errors.New("network failure")
var ErrUnexpectedBody = errors.New("unexpected response body")
var ErrNotAuthenticated = errors.New("not authenticated")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidProduct = errors.New("invalid product")
