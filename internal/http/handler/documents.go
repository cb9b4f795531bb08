package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const maxDocumentIDLen = 128

// uploadResponse is returned by a successful saveDocumentEntry.
type uploadResponse struct {
	Success  bool            `json:"success"`
	Document *model.Document `json:"document"`
}

// DocumentTags godoc
// @Summary List tags
// @Description Distinct tags across all documents, in first-seen order.
// @Tags documents
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} errorPayload
// @Router /api/documentTags [get]
func DocumentTags(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := docSvc.Tags(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "Failed to fetch tags")
		}
		return c.JSON(tags)
	}
}

// SearchDocuments godoc
// @Summary Search documents
// @Description All given criteria must match. Tags match when the document carries any of them.
// @Tags documents
// @Accept json
// @Produce json
// @Param query body model.Query true "Search criteria"
// @Success 200 {array} model.Document
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/searchDocuments [post]
func SearchDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q model.Query
		if err := json.Unmarshal(c.Body(), &q); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "malformed search query")
		}

		docs, err := docSvc.Search(c.UserContext(), q)
		if err != nil {
			return writeServiceError(c, err, "Search failed")
		}
		return c.JSON(docs)
	}
}

// UploadDocument godoc
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPG, PNG, GIF or PDF"
// @Param major_head formData string true "Personal, Professional or Company"
// @Param minor_head formData string true "Minor head"
// @Param document_date formData string false "YYYY-MM-DD"
// @Param document_remarks formData string false "Remarks"
// @Param tags[] formData []string false "Tags" collectionFormat(multi)
// @Success 200 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 415 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/saveDocumentEntry [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "No file provided")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		var tags []string
		if form, err := c.MultipartForm(); err == nil {
			tags = append(tags, form.Value["tags[]"]...)
			tags = append(tags, form.Value["tags"]...)
		}

		doc, err := docSvc.Upload(c.UserContext(), service.UploadInput{
			Reader:          f,
			Filename:        fh.Filename,
			Size:            fh.Size,
			MajorHead:       c.FormValue("major_head"),
			MinorHead:       c.FormValue("minor_head"),
			DocumentDate:    c.FormValue("document_date"),
			DocumentRemarks: c.FormValue("document_remarks"),
			Tags:            tags,
		})
		if err != nil {
			return writeServiceError(c, err, "Upload failed")
		}
		return c.JSON(uploadResponse{Success: true, Document: doc})
	}
}

// ListDocuments godoc
// @Summary List documents
// @Description Documents in upload order with a total count.
// @Tags documents
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetDocument godoc
// @Summary Get a document record
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "internal server error")
		}
		return c.JSON(doc)
	}
}

// DownloadDocument godoc
// @Summary Download document content
// @Description Streams the content as an attachment. With redirect=1 and object storage, redirects to a presigned URL instead.
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Param redirect query int false "1 to prefer a presigned URL"
// @Success 200 {file} file
// @Success 307
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id}/download [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if c.Query("redirect") == "1" {
			u, err := docSvc.DownloadURL(c.UserContext(), id)
			switch {
			case err == nil:
				return c.Redirect(u, fiber.StatusTemporaryRedirect)
			case !errors.Is(err, storage.ErrPresignUnsupported):
				return writeServiceError(c, err, "Download failed")
			}
		}

		return streamContent(c, docSvc, id, "attachment")
	}
}

// PreviewDocument godoc
// @Summary Preview document content
// @Description Streams images and PDFs inline.
// @Tags documents
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 415 {object} errorPayload
// @Router /api/documents/{id}/preview [get]
func PreviewDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		return streamContent(c, docSvc, id, "inline")
	}
}

// ListHeads godoc
// @Summary Classification vocabulary
// @Tags heads
// @Produce json
// @Success 200 {array} model.Head
// @Router /api/heads [get]
func ListHeads(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(docSvc.Heads())
	}
}

// ListMinorHeads godoc
// @Summary Minor heads of a major head
// @Tags heads
// @Produce json
// @Param major path string true "Major head"
// @Success 200 {array} string
// @Failure 404 {object} errorPayload
// @Router /api/heads/{major}/minor [get]
func ListMinorHeads(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		minors, err := docSvc.MinorHeads(c.Params("major"))
		if err != nil {
			if errors.Is(err, service.ErrUnknownMajorHead) {
				return writeError(c, fiber.StatusNotFound, "UNKNOWN_MAJOR_HEAD", "unknown major head")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(minors)
	}
}

// documentID returns the path id. IDs are opaque: uploads use UUIDs while
// corpora imported from disk may carry other formats.
func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if id == "" || len(id) > maxDocumentIDLen {
		return "", false
	}
	return id, true
}

// streamContent writes the document content with the given disposition.
// Inline delivery is limited to images and PDF.
func streamContent(c *fiber.Ctx, docSvc service.DocumentService, id, disposition string) error {
	doc, rc, err := docSvc.Open(c.UserContext(), id)
	if err != nil {
		return writeServiceError(c, err, "Download failed")
	}

	if disposition == "inline" && !previewable(doc.Type) {
		rc.Close()
		return writeError(c, fiber.StatusUnsupportedMediaType, "PREVIEW_UNSUPPORTED", "preview is not available for this file type")
	}

	c.Set(fiber.HeaderContentType, doc.Type)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": doc.Name}))
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	// The stream is closed once the response body has been written.
	return c.SendStream(rc, int(doc.Size))
}

func previewable(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}
