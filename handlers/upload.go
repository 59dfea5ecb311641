package handlers

import (
	"net/http"

	"tourbook/services/storage"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHandler hands out signed parameters for direct browser uploads.
type UploadHandler struct {
	Storage storage.StorageService
	Folder  string
}

func (h *UploadHandler) Signature(c *gin.Context) {
	if h.Storage == nil {
		fail(c, utils.NewAppError(http.StatusServiceUnavailable, "Image uploads are not configured", nil))
		return
	}
	sig, err := h.Storage.SignUpload(h.Folder)
	if err != nil {
		getLogger(c).Error("Failed to sign upload", zap.Error(err))
		fail(c, utils.Internal("Could not sign the upload", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": sig})
}

// Health reports the last dependency snapshot.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
