package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/storage"
	"github.com/mrlokans/choirbook/internal/tasks"
)

// maxImportSize bounds import uploads.
const maxImportSize = 32 << 20

type DataController struct {
	store   DataStore
	bus     Publisher
	queue   TaskEnqueuer
	backups BackupRunner
}

func NewDataController(store DataStore, bus Publisher, queue TaskEnqueuer, backups BackupRunner) *DataController {
	if bus == nil {
		bus = noopPublisher{}
	}
	return &DataController{store: store, bus: bus, queue: queue, backups: backups}
}

// Export downloads the whole library as a JSON document
// GET /api/export
func (dc *DataController) Export(c *gin.Context) {
	data, err := dc.store.ExportData(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "library", "export data")
		return
	}
	filename := fmt.Sprintf("choir_app_backup_%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// ImportResponse reports what an import replaced.
type ImportResponse struct {
	*storage.ImportResult
	Collections   []string `json:"replaced"`
	RecountTaskID string   `json:"recountTaskId,omitempty"`
}

// Import replaces the collections present in an export document. The document
// is the raw request body, or the "file" field of a multipart form.
// POST /api/import
func (dc *DataController) Import(c *gin.Context) {
	data, err := readImportBody(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	result, err := dc.store.ImportData(ctx, data)
	if errors.Is(err, storage.ErrInvalidDocument) {
		respondBadRequest(c, "invalid import document")
		return
	}
	if err != nil {
		respondStoreError(c, err, "library", "import data")
		return
	}

	resp := ImportResponse{ImportResult: result, Collections: result.Replaced()}
	if resp.Collections == nil {
		resp.Collections = []string{}
	}
	if dc.queue != nil {
		ids, err := dc.queue.Enqueue(tasks.RecomputeCategoryCountsTask{Reason: "import"})
		if err != nil {
			log.Printf("Failed to enqueue category recount, running inline: %v", err)
		} else if len(ids) > 0 {
			resp.RecountTaskID = ids[0]
		}
	}
	if resp.RecountTaskID == "" {
		if err := dc.store.RecomputeCategoryCounts(ctx); err != nil {
			respondStoreError(c, err, "categories", "recompute after import")
			return
		}
	}

	dc.bus.Emit(events.DataImported, result)
	c.JSON(http.StatusOK, resp)
}

func readImportBody(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New("file is required")
		}
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportSize))
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty import document")
	}
	return data, nil
}

// Reset clears songs, members, categories and choirs. Settings are kept.
// POST /api/reset?confirm=true
func (dc *DataController) Reset(c *gin.Context) {
	if c.Query("confirm") != "true" {
		respondBadRequest(c, "confirm=true is required")
		return
	}
	if err := dc.store.ResetAllData(c.Request.Context()); err != nil {
		respondStoreError(c, err, "library", "reset data")
		return
	}
	dc.bus.Emit(events.DataReset, nil)
	respondSuccess(c, "all data reset")
}

// GET /api/stats
func (dc *DataController) Stats(c *gin.Context) {
	stats, err := dc.store.Stats(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "stats", "get stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

type BackupStatusResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// BackupStatus reports the backup schedule and the latest run
// GET /api/backups
func (dc *DataController) BackupStatus(c *gin.Context) {
	if dc.backups == nil {
		respondError(c, http.StatusNotImplemented, "backups_disabled", "backups are not configured")
		return
	}
	resp := BackupStatusResponse{
		Scheduled: dc.backups.IsRunning(),
		NextRun:   dc.backups.NextRun(),
	}
	if at, err := dc.backups.LastRun(); !at.IsZero() {
		resp.LastRun = &at
		if err != nil {
			resp.LastError = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Backup writes (or queues) an export into the backup directory
// POST /api/backups
func (dc *DataController) Backup(c *gin.Context) {
	if dc.backups == nil {
		respondError(c, http.StatusNotImplemented, "backups_disabled", "backups are not configured")
		return
	}
	if err := dc.backups.RunNow(c.Request.Context()); err != nil {
		respondInternalError(c, err, "run backup")
		return
	}
	respondAccepted(c, "backup started", nil)
}
