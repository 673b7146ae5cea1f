package transport

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

func (h *BatchHandler) CreateZipTask(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".zip" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only ZIP files are supported"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	created, err := h.service.CreateTask(data, file.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": entity.MessageOf(err)})
		return
	}

	c.JSON(http.StatusAccepted, created)
}

func (h *BatchHandler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *BatchHandler) GetTaskContent(c *gin.Context) {
	content, err := h.service.TaskContent(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrTaskNotCompleted):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task content"})
		}
		return
	}

	c.String(http.StatusOK, content)
}
