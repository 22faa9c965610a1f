package response

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/identity"
	"anoa.com/photoshare/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoginPath is returned with 401 responses so clients can redirect to login.
const LoginPath = "/api/auth/login"

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetIdentity returns the caller identity, identity.Anonymous when no valid user is set.
func GetIdentity(c *gin.Context) identity.Identity {
	userID, err := GetUserID(c)
	if err != nil {
		return identity.Anonymous
	}
	return identity.User(userID)
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}

	if code == http.StatusUnauthorized {
		c.JSON(code, gin.H{"error": err.Error(), "redirect": LoginPath})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// FormImage opens the optional multipart file field. The returned close function is
// always safe to call.
func FormImage(c *gin.Context, field string) (*dto.ImageFile, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil || fileHeader == nil {
		return nil, func() {}, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return &dto.ImageFile{
		Reader:   file,
		FileName: fileHeader.Filename,
	}, func() { _ = file.Close() }, nil
}
