package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/utils"
)

type FileUploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (string, error)
	MaxSize() int64
}

// UploadFile stores the multipart "file" field and returns its public URL.
func UploadFile(uploader FileUploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Leave room for the multipart envelope around the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploader.MaxSize()+1<<20)

		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, utils.ErrFileTooLarge)
				return
			}
			respondError(c, utils.ErrFileMissing)
			return
		}

		url, err := uploader.Upload(c.Request.Context(), fh)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "fileUrl": url})
	}
}
