package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/apperror"
)

const uploadsKey = "uploads"

type UploadField struct {
	Name     string
	MaxCount int
}

type UploadOptions struct {
	Dir      string
	MaxBytes int64
}

// Uploads saves the named multipart files into opts.Dir before the handler
// runs. Handlers read the saved paths with UploadedFile. Files still on disk
// when the request ends are removed.
func Uploads(opts UploadOptions, fields ...UploadField) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.MaxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, opts.MaxBytes)
		}

		saved := map[string]string{}
		defer func() {
			for _, p := range saved {
				_ = os.Remove(p)
			}
		}()

		form, err := c.MultipartForm()
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			c.Next()
			return
		case err != nil:
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				_ = c.Error(apperror.Validation(fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit)))
			} else {
				_ = c.Error(apperror.Validation("Invalid multipart form").WithCause(err))
			}
			c.Abort()
			return
		}

		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			_ = c.Error(apperror.Internal("Could not prepare upload directory", err))
			c.Abort()
			return
		}

		for _, f := range fields {
			files := form.File[f.Name]
			if len(files) == 0 {
				continue
			}
			if f.MaxCount > 0 && len(files) > f.MaxCount {
				_ = c.Error(apperror.Validation("Too many files for field " + f.Name))
				c.Abort()
				return
			}

			dst := filepath.Join(opts.Dir, uuid.NewString()+filepath.Ext(files[0].Filename))
			if err := c.SaveUploadedFile(files[0], dst); err != nil {
				_ = c.Error(apperror.Internal("Could not store uploaded file", err))
				c.Abort()
				return
			}
			saved[f.Name] = dst
		}

		c.Set(uploadsKey, saved)
		c.Next()
	}
}

// UploadedFile is the local path of the file saved for field, or "".
func UploadedFile(c *gin.Context, field string) string {
	v, ok := c.Get(uploadsKey)
	if !ok {
		return ""
	}
	saved, _ := v.(map[string]string)
	return saved[field]
}
