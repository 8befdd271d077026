// Package models defines server-side data models persisted in the database.
package models

import (
	"io"
	"time"
)

// File is the catalog row for an uploaded blob. URL is the blob store locator.
type File struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"uploadDate"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Upload is a decoded multipart file waiting to be persisted.
type Upload struct {
	// OriginalName is the client-side file name.
	OriginalName string
	MimeType     string
	Size         int64
	Content      io.Reader
}

// FilePage is one page of a user's files plus the total number they own.
type FilePage struct {
	Files []*File `json:"files"`
	Total int64   `json:"total"`
}
