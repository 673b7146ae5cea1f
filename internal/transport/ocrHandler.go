package transport

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ocrhub/ocr-gateway/internal/entity"
	"github.com/ocrhub/ocr-gateway/internal/recognition"
)

// Domain failures come back as HTTP 200 with success:false; 4xx is
// reserved for transport-level problems (malformed body, missing file).

func requestOptions(c *gin.Context) recognition.Options {
	return recognition.Options{Account: c.Query("account")}
}

func (h *OCRHandler) RecognizeURL(c *gin.Context) {
	var req entity.URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	env := h.service.Recognize(c.Request.Context(), entity.URLInput(req.URL), requestOptions(c))
	c.JSON(http.StatusOK, env)
}

func (h *OCRHandler) RecognizeBase64(c *gin.Context) {
	var req entity.Base64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	env := h.service.Recognize(c.Request.Context(), entity.Base64Input(req.Image), requestOptions(c))
	c.JSON(http.StatusOK, env)
}

func (h *OCRHandler) RecognizeUpload(c *gin.Context) {
	data, filename, mime, ok := readMultipartImage(c)
	if !ok {
		return
	}

	env := h.service.Recognize(c.Request.Context(),
		entity.UploadInput(data, filename, mime), requestOptions(c))
	c.JSON(http.StatusOK, env)
}

func (h *OCRHandler) RecognizeProxyUpload(c *gin.Context) {
	proxyTarget := c.PostForm("proxyTarget")
	if proxyTarget == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proxyTarget field is required"})
		return
	}

	data, filename, mime, ok := readMultipartImage(c)
	if !ok {
		return
	}

	env := h.service.Recognize(c.Request.Context(),
		entity.ProxyUploadInput(data, filename, mime, proxyTarget), requestOptions(c))
	c.JSON(http.StatusOK, env)
}

// Accounts lists the backend account pool without credentials.
func (h *OCRHandler) Accounts(c *gin.Context) {
	type accountStatus struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	}

	accounts := make([]accountStatus, 0, len(h.accounts))
	for _, a := range h.accounts {
		accounts = append(accounts, accountStatus{Name: a.Name, Enabled: a.Enabled})
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func readMultipartImage(c *gin.Context) (data []byte, filename, mime string, ok bool) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file provided"})
		return nil, "", "", false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return nil, "", "", false
	}
	defer src.Close()

	data, err = io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return nil, "", "", false
	}

	return data, file.Filename, file.Header.Get("Content-Type"), true
}
