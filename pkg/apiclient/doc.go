// Package apiclient is the JSON transport for the catalog REST API.
//
// Every call goes through Client.Send. A body is encoded as JSON, the
// response body is decoded as JSON when it is valid and treated as absent
// otherwise, and a non-2xx status becomes a *RequestError. Failures below
// HTTP become a *NetworkError.
//
// Calls to anything other than the authentication endpoints are guarded by
// a refresh interceptor: a 401 triggers one silent session refresh and, if
// that succeeds, one replay of the original request. The replay's outcome
// is returned as is.
//
// Session credentials only ever travel as server managed cookies. The
// client hands them to its cookie jar and never looks at their values.
package apiclient
