package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Rishika-pasricha/Hack-Hub/internal/app"
	"github.com/Rishika-pasricha/Hack-Hub/internal/service"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

// respondError writes the status for err. Unclassified errors are logged
// and answered with the fixed message.
func respondError(a *app.App, c *gin.Context, err error, fixed string) {
	var (
		invalid   *service.ValidationError
		notFound  *service.NotFoundError
		conflict  *service.ConflictError
		forbidden *service.ForbiddenError
		otp       *service.OTPError
		ban       *service.BanError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(400, gin.H{"error": invalid.Message})
	case errors.As(err, &notFound):
		c.JSON(404, gin.H{"error": notFound.Message})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(404, gin.H{"error": "Not found"})
	case errors.As(err, &conflict):
		c.JSON(409, gin.H{"error": conflict.Message})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(401, gin.H{"error": err.Error()})
	case errors.As(err, &otp):
		c.JSON(401, gin.H{"error": otp.Message})
	case errors.As(err, &ban):
		c.JSON(403, gin.H{"error": ban.Error(), "bannedUntil": ban.Until})
	case errors.As(err, &forbidden):
		c.JSON(403, gin.H{"error": forbidden.Message})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(429, gin.H{"error": err.Error()})
	default:
		a.Log().Error(fixed, "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "err", err)
		c.JSON(500, gin.H{"error": fixed})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(400, gin.H{"error": "Missing or invalid fields"})
}
