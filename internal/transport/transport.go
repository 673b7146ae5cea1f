package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>OCR Gateway</title></head>
<body>
  <h1>OCR Gateway</h1>
  <p>POST an image to /api/ocr/url, /api/ocr/base64, /api/ocr/upload or /api/ocr/proxy-upload.</p>
</body>
</html>`

func InitRoutes(ocrHandler *OCRHandler, batchHandler *BatchHandler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		ocr := api.Group("/ocr")
		{
			ocr.POST("/url", ocrHandler.RecognizeURL)
			ocr.POST("/base64", ocrHandler.RecognizeBase64)
			ocr.POST("/upload", ocrHandler.RecognizeUpload)
			ocr.POST("/proxy-upload", ocrHandler.RecognizeProxyUpload)
		}

		api.GET("/accounts", ocrHandler.Accounts)

		zip := api.Group("/zip")
		{
			zip.POST("/ocr", batchHandler.CreateZipTask)
			zip.GET("/ocr/:id", batchHandler.GetTask)
			zip.GET("/ocr/:id/content", batchHandler.GetTaskContent)
		}
	}

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "ocr-gateway",
		})
	})
	return router
}
