package api

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rishika-pasricha/Hack-Hub/internal/app"
	"github.com/Rishika-pasricha/Hack-Hub/internal/directory"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/service"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
)

/* ----------------------------------------------------------------
   DTO types
-----------------------------------------------------------------*/

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"  binding:"required"`
	Email     string `json:"email"     binding:"required,email"`
	Password  string `json:"password"  binding:"required"`
	Area      string `json:"area"`
	District  string `json:"district"`
}

type LoginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp"   binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"       binding:"required"`
	OTP         string `json:"otp"         binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type ProfileRequest struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Area         *string `json:"area"`
	ProfileImage *string `json:"profileImage"`
}

/* ================================================================
   ACCOUNTS
================================================================ */

func userBody(u models.User) gin.H {
	return gin.H{
		"id":                   u.ID,
		"firstName":            u.FirstName,
		"lastName":             u.LastName,
		"email":                u.Email,
		"area":                 u.Area,
		"profileImage":         u.ProfileImage,
		"removedProductsCount": u.RemovedProductsCount,
		"uploadBanUntil":       u.UploadBanUntil,
	}
}

func handleRegister(a *app.App, c *gin.Context) {
	var in RegisterRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	area := in.Area
	if strings.TrimSpace(area) == "" {
		area = in.District
	}

	u, err := a.Services().Accounts.Register(c.Request.Context(), service.RegisterInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Area:      area,
	})
	if err != nil {
		respondError(a, c, err, "Failed to create user")
		return
	}
	c.JSON(201, userBody(u))
}

func handleLogin(a *app.App, c *gin.Context) {
	var in LoginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(401, gin.H{"error": service.ErrInvalidCredentials.Error()})
		return
	}

	res, err := a.Services().Accounts.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondError(a, c, err, "Login failed")
		return
	}

	if res.Municipality != nil {
		m := res.Municipality
		c.JSON(200, gin.H{
			"email":            m.ContactEmail,
			"municipalityName": m.Name,
			"district":         m.District,
			"role":             res.Identity.Role,
			"token":            res.Token,
		})
		return
	}
	body := userBody(*res.User)
	body["role"] = res.Identity.Role
	body["token"] = res.Token
	c.JSON(200, body)
}

func handleForgotPassword(a *app.App, c *gin.Context) {
	var in ForgotPasswordRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	if err := a.Services().Accounts.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		respondError(a, c, err, "Failed to process request")
		return
	}
	c.JSON(200, gin.H{"message": "If that email is registered, an OTP has been sent"})
}

func handleVerifyOTP(a *app.App, c *gin.Context) {
	var in VerifyOTPRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	if err := a.Services().Accounts.VerifyOTP(c.Request.Context(), in.Email, in.OTP); err != nil {
		respondError(a, c, err, "Failed to verify OTP")
		return
	}
	c.JSON(200, gin.H{"message": "OTP verified"})
}

func handleResetPassword(a *app.App, c *gin.Context) {
	var in ResetPasswordRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	if err := a.Services().Accounts.ResetPassword(c.Request.Context(), in.Email, in.OTP, in.NewPassword); err != nil {
		respondError(a, c, err, "Failed to reset password")
		return
	}
	c.JSON(200, gin.H{"message": "Password reset successfully"})
}

func handleGetProfile(a *app.App, c *gin.Context) {
	u, err := a.Services().Accounts.Profile(c.Request.Context(), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load profile")
		return
	}
	c.JSON(200, userBody(u))
}

func handleUpdateProfile(a *app.App, c *gin.Context) {
	var in ProfileRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	u, err := a.Services().Accounts.UpdateProfile(c.Request.Context(), identity(c).Email, models.ProfileUpdate{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Area:         in.Area,
		ProfileImage: in.ProfileImage,
	})
	if err != nil {
		respondError(a, c, err, "Failed to update profile")
		return
	}
	c.JSON(200, userBody(u))
}

func handleDeleteAccount(a *app.App, c *gin.Context) {
	if err := a.Services().Accounts.DeleteAccount(c.Request.Context(), identity(c).Email); err != nil {
		respondError(a, c, err, "Failed to delete account")
		return
	}
	c.JSON(200, gin.H{"message": "Account deleted"})
}

/* ================================================================
   MUNICIPALITY DIRECTORY
================================================================ */

func handleMunicipalityLookup(a *app.App, c *gin.Context, param string) {
	q := strings.TrimSpace(c.Query(param))
	if q == "" {
		c.JSON(400, gin.H{"error": param + " is required"})
		return
	}
	m, err := a.Directory().ResolveArea(c.Request.Context(), q)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(404, gin.H{"error": "No municipality found for " + q})
		return
	}
	if err != nil {
		respondError(a, c, err, "Failed to look up municipality")
		return
	}
	c.JSON(200, m)
}

// handleSyncMunicipalities re-imports the configured dataset. Request bodies
// are ignored: credentials and municipality emails only come from the
// operator's file.
func handleSyncMunicipalities(a *app.App, c *gin.Context) {
	res, err := a.Directory().SyncFile(c.Request.Context(), a.Config().MunicipalityCSV)
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(404, gin.H{"error": "Municipality dataset not found"})
		return
	}
	if errors.Is(err, directory.ErrInvalidDataset) {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(a, c, err, "Failed to sync municipalities")
		return
	}
	c.JSON(200, res)
}

/* ================================================================
   NOTIFICATIONS
================================================================ */

func handleNotifications(a *app.App, c *gin.Context) {
	feed, err := a.Services().Notifications.Feed(c.Request.Context(), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load notifications")
		return
	}
	c.JSON(200, feed)
}
