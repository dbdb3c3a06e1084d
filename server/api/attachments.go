package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection_server/server/common/transport/httpresp"
)

func (h *Handler) uploadAttachment(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("multipart field 'file' is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	defer f.Close()

	item, err := h.attachments.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) downloadAttachment(c *gin.Context) {
	rc, item, err := h.attachments.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", item.OriginalName),
	}
	c.DataFromReader(http.StatusOK, item.SizeBytes, item.ContentType, rc, headers)
}

func (h *Handler) downloadThumbnail(c *gin.Context) {
	rc, err := h.attachments.DownloadThumbnail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "image/jpeg", rc, nil)
}
