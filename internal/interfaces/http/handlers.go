package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/application/service"
	"github.com/garyjia/drivehub/internal/domain/entity"
)

// multipartOverhead is the slack allowed on top of the upload limit for
// multipart framing and the accountIndex field.
const multipartOverhead = 1 << 20

// HandlerConfig holds request-level settings
type HandlerConfig struct {
	AdminPassword string
	UploadLimit   int64
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	resolver     *service.AccountResolver
	fileService  service.FileService
	usageService service.UsageService
	content      port.ContentReader
	config       HandlerConfig
	logger       Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	resolver *service.AccountResolver,
	fileService service.FileService,
	usageService service.UsageService,
	content port.ContentReader,
	config HandlerConfig,
	logger Logger,
) *Handlers {
	return &Handlers{
		resolver:     resolver,
		fileService:  fileService,
		usageService: usageService,
		content:      content,
		config:       config,
		logger:       logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AccountResponse is one selectable account
type AccountResponse struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// FileResponse is an object in the public listing
type FileResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType,omitempty"`
	ThumbnailLink  string `json:"thumbnailLink,omitempty"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// AdminFileResponse is an object in the admin listing.
// Size is a decimal string, as the provider reports it.
type AdminFileResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Size          string `json:"size,omitempty"`
	CreatedTime   string `json:"createdTime,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	WebViewLink   string `json:"webViewLink,omitempty"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
	MD5Checksum   string `json:"md5Checksum,omitempty"`
}

// StorageResponse holds the formatted usage figures of /stats
type StorageResponse struct {
	Used    string `json:"used"`
	Total   string `json:"total"`
	Percent string `json:"percent"`
}

// UploadResponse describes a freshly uploaded object
type UploadResponse struct {
	FileID        string `json:"fileId"`
	Name          string `json:"name"`
	DriveLink     string `json:"driveLink"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
	MimeType      string `json:"mimeType"`
}

// ServerUsageResponse is one account's quota breakdown in raw bytes
type ServerUsageResponse struct {
	Name       string `json:"name"`
	Limit      int64  `json:"bytes_Limit"`
	Total      int64  `json:"bytes_Total"`
	Web        int64  `json:"bytes_Web"`
	OtherDrive int64  `json:"bytes_OtherDrive"`
	Mail       int64  `json:"bytes_Gmail"`
}

// ServerErrorResponse replaces the breakdown for an unusable account
type ServerErrorResponse struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadURLRequest is the body of POST /upload-url
type UploadURLRequest struct {
	URL          string      `json:"url"`
	AccountIndex interface{} `json:"accountIndex"`
}

// LoginRequest is the body of POST /admin/login
type LoginRequest struct {
	Password string `json:"password"`
}

// DeleteMultipleRequest is the body of POST /admin/delete-multiple.
// FileIDs is left untyped so a non-array can be told apart from a bad body.
type DeleteMultipleRequest struct {
	FileIDs interface{} `json:"fileIds"`
}

// RenameRequest is the body of POST /admin/rename
type RenameRequest struct {
	FileID  string `json:"fileId"`
	NewName string `json:"newName"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ListAccounts handles GET /accounts
func (h *Handlers) ListAccounts(c *gin.Context) {
	accounts := h.resolver.Accounts()
	resp := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, AccountResponse{Index: a.Index, Name: a.Name})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "accounts": resp})
}

// ListFiles handles GET /files
func (h *Handlers) ListFiles(c *gin.Context) {
	index := service.ParseIndex(c.Query("index"))

	objects, err := h.fileService.List(c.Request.Context(), index)
	if err != nil {
		h.logger.Error("Failed to list files", "index", index, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	files := make([]FileResponse, 0, len(objects))
	for _, obj := range objects {
		files = append(files, toFileResponse(obj))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "files": files})
}

// FolderStats handles GET /stats
func (h *Handlers) FolderStats(c *gin.Context) {
	index := service.ParseIndex(c.Query("index"))

	stats, err := h.usageService.FolderStats(c.Request.Context(), index)
	if err != nil {
		h.logger.Error("Failed to compute folder stats", "index", index, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"totalFiles": stats.TotalFiles,
		"storage": StorageResponse{
			Used:    formatGiB(stats.UsedBytes),
			Total:   formatGiB(stats.LimitBytes),
			Percent: fmt.Sprintf("%.2f", stats.Percent()),
		},
	})
}

// Upload handles POST /upload (multipart field myFile)
func (h *Handlers) Upload(c *gin.Context) {
	if h.config.UploadLimit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.UploadLimit+multipartOverhead)
	}

	header, err := c.FormFile("myFile")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file"})
		return
	}
	if h.config.UploadLimit > 0 && header.Size > h.config.UploadLimit {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	defer file.Close()

	index := service.ParseIndex(c.PostForm("accountIndex"))
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	obj, err := h.fileService.Upload(c.Request.Context(), index, header.Filename, mimeType, file)
	if err != nil {
		h.logger.Error("Upload failed", "index", index, "name", header.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": toUploadResponse(obj)})
}

// UploadFromURL handles POST /upload-url
func (h *Handlers) UploadFromURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing URL"})
		return
	}

	index := service.ParseIndexValue(req.AccountIndex)

	obj, err := h.fileService.UploadFromURL(c.Request.Context(), index, req.URL)
	if err != nil {
		h.logger.Error("Upload from URL failed", "url", req.URL, "index", index, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "failed to fetch from URL: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": toUploadResponse(obj)})
}

// ServeObject handles GET /objects/:id for stores that hold content locally
func (h *Handlers) ServeObject(c *gin.Context) {
	body, obj, err := h.content.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Warn("Object not served", "object_id", c.Param("id"), "error", err)
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "File not found"})
		return
	}
	defer body.Close()

	headers := map[string]string{}
	if c.Query("download") != "" {
		headers["Content-Disposition"] = fmt.Sprintf("attachment; filename=%q", obj.Name)
	}

	mimeType := obj.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, mimeType, body, headers)
}

// AdminLogin handles POST /admin/login
func (h *Handlers) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Malformed admin login body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	if !passwordMatches(h.config.AdminPassword, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ServerStats handles GET /admin/stats-all
func (h *Handlers) ServerStats(c *gin.Context) {
	usages, err := h.usageService.ServerUsage(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute server stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	servers := make([]interface{}, 0, len(usages))
	for _, u := range usages {
		if u.Error != "" {
			servers = append(servers, ServerErrorResponse{Name: u.Name, Error: u.Error})
			continue
		}
		servers = append(servers, ServerUsageResponse{
			Name:       u.Name,
			Limit:      u.Limit,
			Total:      u.Total,
			Web:        u.Web,
			OtherDrive: u.OtherDrive,
			Mail:       u.Mail,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "servers": servers})
}

// AdminListFiles handles GET /admin/files/:index
func (h *Handlers) AdminListFiles(c *gin.Context) {
	index := service.ParseIndex(c.Param("index"))

	objects, err := h.fileService.ListDetailed(c.Request.Context(), index)
	if err != nil {
		h.logger.Error("Failed to list files", "index", index, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	files := make([]AdminFileResponse, 0, len(objects))
	for _, obj := range objects {
		files = append(files, toAdminFileResponse(obj))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "files": files})
}

// ExportFiles handles GET /admin/files/:index/export
func (h *Handlers) ExportFiles(c *gin.Context) {
	index := service.ParseIndex(c.Param("index"))

	export, err := h.fileService.ExportListing(c.Request.Context(), index)
	if err != nil {
		h.logger.Error("Failed to export listing", "index", index, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// DeleteFile handles DELETE /admin/files/:index/:id.
// The index is accepted but the default store performs the delete.
func (h *Handlers) DeleteFile(c *gin.Context) {
	id := c.Param("id")

	if err := h.fileService.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete file", "object_id", id, "index", c.Param("index"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	h.logger.Info("File deleted", "object_id", id, "index", c.Param("index"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteMultiple handles POST /admin/delete-multiple
func (h *Handlers) DeleteMultiple(c *gin.Context) {
	var req DeleteMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	raw, ok := req.FileIDs.([]interface{})
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "fileIds must be an array"})
		return
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		id, ok := v.(string)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "fileIds must contain strings"})
			return
		}
		ids = append(ids, id)
	}

	summary := h.fileService.DeleteMany(c.Request.Context(), ids)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Deleted %d file(s). (failed or not found: %d)", summary.Deleted, summary.Failed),
		"deleted": summary.Deleted,
		"failed":  summary.Failed,
	})
}

// RenameFile handles POST /admin/rename
func (h *Handlers) RenameFile(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	if err := h.fileService.Rename(c.Request.Context(), req.FileID, req.NewName); err != nil {
		h.logger.Error("Failed to rename file", "object_id", req.FileID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EmptyTrash handles POST /admin/empty-trash/:index.
// The index is accepted but the default store's trash is emptied.
func (h *Handlers) EmptyTrash(c *gin.Context) {
	if err := h.fileService.EmptyTrash(c.Request.Context()); err != nil {
		h.logger.Error("Failed to empty trash", "index", c.Param("index"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.logger.Info("Trash emptied", "index", c.Param("index"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func toFileResponse(obj *entity.StoredObject) FileResponse {
	return FileResponse{
		ID:             obj.ID,
		Name:           obj.Name,
		MimeType:       obj.MimeType,
		ThumbnailLink:  obj.ThumbnailLink,
		WebViewLink:    obj.WebViewLink,
		WebContentLink: obj.WebContentLink,
	}
}

func toAdminFileResponse(obj *entity.StoredObject) AdminFileResponse {
	resp := AdminFileResponse{
		ID:            obj.ID,
		Name:          obj.Name,
		MimeType:      obj.MimeType,
		WebViewLink:   obj.WebViewLink,
		ThumbnailLink: obj.ThumbnailLink,
		MD5Checksum:   obj.MD5Checksum,
	}
	if obj.Size > 0 {
		resp.Size = strconv.FormatInt(obj.Size, 10)
	}
	if !obj.CreatedTime.IsZero() {
		resp.CreatedTime = obj.CreatedTime.UTC().Format(time.RFC3339Nano)
	}
	return resp
}

func toUploadResponse(obj *entity.StoredObject) UploadResponse {
	return UploadResponse{
		FileID:        obj.ID,
		Name:          obj.Name,
		DriveLink:     obj.WebViewLink,
		ThumbnailLink: obj.ThumbnailLink,
		MimeType:      obj.MimeType,
	}
}

func formatGiB(bytes int64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/float64(entity.GiB))
}
