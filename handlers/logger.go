package handlers

import (
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request scoped logger set by the request middleware.
func getLogger(c *gin.Context) *zap.Logger {
	return utils.RequestLogger(c)
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
