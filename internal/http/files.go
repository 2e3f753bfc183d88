package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// uploadFile stores the multipart field "file" and returns its handle.
func (h *Handler) uploadFile(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	handle, err := h.documents.StoreFile(c.Request.Context(), blob)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"handle": handle, "size": len(blob)}})
}

func (h *Handler) downloadFile(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	handle := c.Param("handle")
	blob, err := h.documents.OpenFile(c.Request.Context(), handle)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("ETag", "\""+handle+"\"")
	c.Header("Cache-Control", "private, max-age=31536000, immutable")
	c.Data(http.StatusOK, http.DetectContentType(blob), blob)
}
