package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
)

const (
	uploadField     = "file"
	fileNotFound    = "File not found"
	multipartMemory = 8 << 20
	defaultMimeType = "application/octet-stream"
)

var errBadUpload = errors.New("file is required")

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	upload, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	defer cleanup()

	file, err := h.files.Upload(r.Context(), userID, upload)
	if err != nil {
		h.writeServiceError(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": file})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	q := r.URL.Query()

	page, err := h.files.List(r.Context(), userID, atoiOr(q.Get("list_size"), 0), atoiOr(q.Get("page"), 0))
	if err != nil {
		h.writeServiceError(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := fileID(r)
	if !ok {
		writeError(w, http.StatusNotFound, fileNotFound)
		return
	}

	file, err := h.files.Get(r.Context(), userID, id)
	if err != nil {
		h.writeServiceError(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": file})
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := fileID(r)
	if !ok {
		writeError(w, http.StatusNotFound, fileNotFound)
		return
	}

	locator, err := h.files.Download(r.Context(), userID, id)
	if err != nil {
		h.writeServiceError(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, locator)
}

func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := fileID(r)
	if !ok {
		writeError(w, http.StatusNotFound, fileNotFound)
		return
	}

	upload, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	defer cleanup()

	file, err := h.files.Update(r.Context(), userID, id, upload)
	if err != nil {
		h.writeServiceError(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "File updated", "file": file})
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := fileID(r)
	if !ok {
		writeError(w, http.StatusNotFound, fileNotFound)
		return
	}

	if err := h.files.Delete(r.Context(), userID, id); err != nil {
		h.writeServiceError(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "File deleted"})
}

// readUpload decodes the multipart "file" part. The returned cleanup closes
// the part and removes any temporary files the decoder spilled to disk.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*models.Upload, func(), error) {
	if h.cfg.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	release := func() { _ = r.MultipartForm.RemoveAll() }

	part, header, err := r.FormFile(uploadField)
	if err != nil {
		release()
		return nil, nil, errBadUpload
	}
	cleanup := func() {
		_ = part.Close()
		release()
	}

	mimeType, err := detectMimeType(part, header)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &models.Upload{
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
		Content:      part,
	}, cleanup, nil
}

// detectMimeType trusts the part's Content-Type unless it is missing or the
// generic octet-stream, in which case the content is sniffed. part is
// rewound afterwards.
func detectMimeType(part multipart.File, header *multipart.FileHeader) (string, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != defaultMimeType {
		return ct, nil
	}

	mt, err := mimetype.DetectReader(part)
	if err != nil {
		return "", err
	}
	if _, err := part.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mt.String(), nil
}

func (h *Handler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
	case errors.Is(err, errBadUpload):
		writeError(w, http.StatusBadRequest, errBadUpload.Error())
	default:
		h.writeServiceError(w, r, err, fileNotFound)
	}
}

func fileID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
