package user

import "tourbook/utils"

var (
	ErrMissingCredentials = utils.BadRequest("Please provide email and password!")
	ErrBadCredentials     = utils.Unauthorized("Incorrect email or password")
	ErrUserGone           = utils.Unauthorized("The user belonging to this token does no longer exist.")
	ErrPasswordChanged    = utils.Unauthorized("User recently changed password! Please log in again.")
	ErrWrongPassword      = utils.Unauthorized("Your current password is wrong.")
	ErrNoUserWithEmail    = utils.NotFound("There is no user with that email address.")
	ErrResetTokenInvalid  = utils.BadRequest("Token is invalid or has expired")
	ErrNotPasswordRoute   = utils.BadRequest("This route is not for password updates. Please use /updateMyPassword.")
	ErrMissingImageURL    = utils.BadRequest("Please provide an image URL")
	ErrNoImage            = utils.BadRequest("Please upload an image")
)
