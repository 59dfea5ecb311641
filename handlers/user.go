package handlers

import (
	"net/http"

	"tourbook/database/repository"
	"tourbook/middleware"
	"tourbook/models"
	userService "tourbook/services/user"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxPhotoBytes = 5 << 20

// UserHandler serves the caller's own profile.
type UserHandler struct {
	Users userService.UserService
}

// NewUserAdminResource builds the admin user handlers. Credentials are
// never writable through it.
func NewUserAdminResource(store repository.Store[models.User]) *Resource[models.User] {
	return &Resource[models.User]{
		Store: store,
		Protected: []string{
			"password", "passwordChangedAt", "passwordResetToken", "passwordResetExpires", "active",
		},
	}
}

// CreateUserNotDefined points admins at the signup flow.
func CreateUserNotDefined(c *gin.Context) {
	fail(c, utils.NewAppError(http.StatusInternalServerError, "This route is not defined! Please use /signup instead", nil))
}

// callerID returns the authenticated user's id or records an error.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	entry, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(entry.UserID)
	if err != nil {
		fail(c, utils.Unauthorized("Invalid token. Please log in again!"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *UserHandler) GetMe(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	u, err := h.Users.GetMe(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u}})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, err)
		return
	}
	u, err := h.Users.UpdateMe(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u}})
}

// UpdateMyPhoto stores the multipart "photo" file as the caller's avatar.
func (h *UserHandler) UpdateMyPhoto(c *gin.Context) {
	logger := getLogger(c)
	id, ok := callerID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	header, err := c.FormFile("photo")
	if err != nil {
		logger.Warn("Photo missing from upload", zap.Error(err))
		fail(c, userService.ErrNoImage)
		return
	}
	file, err := header.Open()
	if err != nil {
		fail(c, utils.BadRequest("Could not read the uploaded image"))
		return
	}
	defer file.Close()

	u, err := h.Users.UpdatePhoto(c.Request.Context(), id, file)
	if err != nil {
		logger.Error("Photo upload failed", zap.Error(err))
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u}})
}

// UpdateAvatar records an image that was uploaded directly to storage.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	u, err := h.Users.UpdateAvatar(c.Request.Context(), id, req.ImageURL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u}})
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.Users.DeleteMe(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
