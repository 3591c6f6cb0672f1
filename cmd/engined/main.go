// engined runs the analysis engine as a standalone HTTP service, the shape
// the dashboard's remote-engine client expects. Failures are reported
// in-band as {"error": "..."} payloads.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"edadash/internal/config"
	"edadash/internal/engine"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	eng := engine.New(engine.Options{
		PreviewRows:    cfg.Engine.PreviewRows,
		CategoryCutoff: cfg.Engine.CategoryCutoff,
	})

	router := gin.Default()
	router.MaxMultipartMemory = cfg.Engine.MaxUploadBytes

	router.POST("/upload", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
			return
		}
		defer file.Close()

		result, err := eng.Analyze(c.Request.Context(), fileHeader.Filename, file)
		if err != nil {
			log.Printf("[engined] analysis failed for %s: %v", fileHeader.Filename, err)
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	port := os.Getenv("ENGINE_PORT")
	if port == "" {
		port = "8000"
	}
	log.Printf("Analysis engine listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Engine server error: %v", err)
	}
}
