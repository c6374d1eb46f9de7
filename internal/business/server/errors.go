package server

import (
	"errors"
	"net/http"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/pkg/apiclient"
	"github.com/openkcm/catalog-client/pkg/catalog"
	"github.com/openkcm/catalog-client/pkg/session"
)

type errorModel struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
}

// toErrorModel maps an error to the body and status sent to the client.
func toErrorModel(err error) (errorModel, int) {
	var (
		fieldErrs   session.FieldErrors
		productErrs catalog.ProductErrors
		reqErr      *apiclient.RequestError
	)

	switch {
	case errors.As(err, &fieldErrs):
		return errorModel{Error: "invalid_request", ErrorDescription: "missing credentials", Fields: fieldErrs}, http.StatusBadRequest
	case errors.As(err, &productErrs):
		return errorModel{Error: "invalid_request", ErrorDescription: "invalid product", Fields: productErrs}, http.StatusBadRequest
	case errors.Is(err, serviceerr.ErrNotAuthenticated):
		return errorModel{Error: "not_authenticated", ErrorDescription: "sign in first"}, http.StatusUnauthorized
	case errors.As(err, &reqErr):
		status := http.StatusBadGateway
		if reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
			status = reqErr.StatusCode
		}
		return errorModel{Error: "upstream_error", ErrorDescription: reqErr.Message}, status
	case errors.Is(err, serviceerr.ErrNetwork), errors.Is(err, serviceerr.ErrUnexpectedBody):
		return errorModel{Error: "upstream_unavailable", ErrorDescription: "the catalog api could not be reached"}, http.StatusBadGateway
	default:
		return errorModel{Error: "internal_error"}, http.StatusInternalServerError
	}
}
