package handlers

import (
	"context"
	"io"
	"net/http"
	"testing"

	"tourbook/middleware"
	"tourbook/models"
	userService "tourbook/services/user"
	"tourbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubUsers struct {
	userService.UserService
	resetBase string
	patch     map[string]any
}

func (s *stubUsers) Login(_ context.Context, email, password string) (*userService.AuthResponse, error) {
	if password != "pass1234" {
		return nil, userService.ErrBadCredentials
	}
	return &userService.AuthResponse{Token: "tok", User: &models.User{Email: email}}, nil
}

func (s *stubUsers) ForgotPassword(_ context.Context, _ string, base string) error {
	s.resetBase = base
	return nil
}

func (s *stubUsers) UpdateMe(_ context.Context, id primitive.ObjectID, patch map[string]any) (*models.User, error) {
	s.patch = patch
	return &models.User{ID: id, Name: "new"}, nil
}

func (s *stubUsers) UpdatePhoto(context.Context, primitive.ObjectID, io.Reader) (*models.User, error) {
	return nil, nil
}

func TestLoginSetsCookie(t *testing.T) {
	h := &AuthHandler{Users: &stubUsers{}}
	r := newRouter()
	r.POST("/login", h.Login)

	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"a@b.co","password":"pass1234"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "a@b.co", body["data"].(map[string]any)["user"].(map[string]any)["email"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.TokenCookie, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = doJSON(t, r, http.MethodPost, "/login", `{"email":"a@b.co","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect email or password", decode(t, w)["message"])
}

func TestLogoutReplacesCookie(t *testing.T) {
	r := newRouter()
	r.GET("/logout", (&AuthHandler{}).Logout)

	w := doJSON(t, r, http.MethodGet, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, loggedOut, cookies[0].Value)
	assert.Equal(t, 10, cookies[0].MaxAge)
}

func TestForgotPasswordBuildsResetURL(t *testing.T) {
	stub := &stubUsers{}
	r := newRouter()
	r.POST("/forgotPassword", (&AuthHandler{Users: stub}).ForgotPassword)

	w := doJSON(t, r, http.MethodPost, "/forgotPassword", `{"email":"a@b.co"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Token sent to email!", decode(t, w)["message"])
	assert.Equal(t, "http://example.com/api/v1/users/resetPassword", stub.resetBase)
}

func TestUpdateMeRequiresCaller(t *testing.T) {
	stub := &stubUsers{}
	h := &UserHandler{Users: stub}
	r := newRouter()
	r.PATCH("/me", asCaller(&utils.AuthEntry{UserID: primitive.NewObjectID().Hex()}), h.UpdateMe)
	r.PATCH("/anon", h.UpdateMe)

	w := doJSON(t, r, http.MethodPatch, "/me", `{"name":"new"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new", stub.patch["name"])

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodPatch, "/anon", `{"name":"x"}`).Code)
}

func TestUpdateMyPhotoRequiresFile(t *testing.T) {
	h := &UserHandler{Users: &stubUsers{}}
	r := newRouter()
	r.PATCH("/photo", asCaller(&utils.AuthEntry{UserID: primitive.NewObjectID().Hex()}), h.UpdateMyPhoto)

	w := doJSON(t, r, http.MethodPatch, "/photo", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please upload an image", decode(t, w)["message"])
}
