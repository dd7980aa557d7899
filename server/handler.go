package server

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"image/png"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/snapbg/snapbg/config"
	"github.com/snapbg/snapbg/snap"
)

var errUnauthorized = errors.New("unauthorized")

func authenticate(c *gin.Context) error {
	auth := c.GetHeader("Authorization")

	expectedToken := config.C().Token
	if expectedToken == "" {
		return nil
	}
	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(expectedToken)) != 1 {
		return errUnauthorized
	}

	return nil
}

func RemoveBackgroundHandler(c *gin.Context) {
	if err := authenticate(c); err != nil {
		c.JSON(401, gin.H{"error": "authentication failed"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "no file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(400, gin.H{"error": "could not open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(400, gin.H{"error": "could not read uploaded file"})
		return
	}

	result, err := pipe.RemoveBackground(snap.FromBytes(data))
	if err != nil {
		if errors.Is(err, snap.ErrUnsupportedInput) {
			c.JSON(400, gin.H{"error": "could not decode image"})
			return
		}
		slog.Error("Background removal failed", slog.String("error", err.Error()))
		c.JSON(500, gin.H{"error": "inference failed"})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		slog.Error("PNG encoding failed", slog.String("error", err.Error()))
		c.JSON(500, gin.H{"error": "encoding failed"})
		return
	}
	c.Data(200, "image/png", buf.Bytes())
}

func HealthHandler(c *gin.Context) {
	c.JSON(200, gin.H{"status": "healthy"})
}
