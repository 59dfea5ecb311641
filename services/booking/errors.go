package booking

import (
	"net/http"

	"tourbook/utils"
)

var (
	ErrTourNotFound    = utils.NotFound("Tour not found")
	ErrMissingSession  = utils.BadRequest("session_id is required")
	ErrPaymentNotPaid  = utils.NewAppError(http.StatusPaymentRequired, "Payment has not been completed", nil)
	ErrSessionNotYours = utils.Forbidden("This checkout session belongs to another user")
	ErrNoSignature     = utils.BadRequest("No stripe signature found")
)
