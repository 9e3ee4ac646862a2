package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/security"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

func (s *Server) registerUploadRoutes() {
	uploads := s.engine.Group("/uploads", s.authRequired(), requireRoles(auth.RoleAdmin, auth.RoleVendor))
	uploads.POST("/images", s.handleImageUpload)
}

// handleImageUpload stores the posted image files under the configured
// image directory with a random suffix and returns the stored names.
func (s *Server) handleImageUpload(c *gin.Context) {
	cfg := s.deps.Config.Uploads

	form, err := c.MultipartForm()
	if err != nil {
		abortWithError(c, apperror.BadRequest("multipart form with images is required"))
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		abortWithError(c, apperror.BadRequest("at least one image is required"))
		return
	}
	if len(files) > cfg.MaxImages {
		abortWithError(c, apperror.BadRequest(fmt.Sprintf("at most %d images are allowed per upload", cfg.MaxImages)))
		return
	}

	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		abortWithError(c, apperror.Internal("could not prepare upload directory", err))
		return
	}

	stored := make([]string, 0, len(files))
	for _, file := range files {
		if file.Size > cfg.MaxImageSize {
			abortWithError(c, apperror.BadRequest(fmt.Sprintf("%s exceeds the %d byte limit", file.Filename, cfg.MaxImageSize)))
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageExtensions[ext] {
			abortWithError(c, apperror.BadRequest(fmt.Sprintf("%s has an unsupported image type", file.Filename)))
			return
		}

		name := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(filepath.Base(file.Filename), ext), uuid.NewString(), ext)
		if err := security.ValidateFileName(name); err != nil {
			abortWithError(c, apperror.BadRequest(fmt.Sprintf("%s has an invalid name", file.Filename)))
			return
		}

		if err := saveUploadedFile(file, filepath.Join(cfg.ImageDir, name)); err != nil {
			abortWithError(c, apperror.Internal("could not store uploaded image", err))
			return
		}
		stored = append(stored, name)
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":    stored,
		"message": fmt.Sprintf("%d images uploaded successfully", len(stored)),
		"status":  http.StatusCreated,
	})
}

func saveUploadedFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
