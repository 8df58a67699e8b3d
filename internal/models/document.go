// Package models defines the data types shared by the CLI, the upload
// pipeline and the backend client.
package models

import "time"

// Document is one uploaded document as reported by GET /documents.
type Document struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"fileName" yaml:"fileName"`
	UploadDate time.Time `json:"uploadDate,omitempty" yaml:"uploadDate,omitempty"`
}

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// DeleteSummary is the result of deleting every document.
type DeleteSummary struct {
	Deleted int             `json:"deleted" yaml:"deleted"`
	Failed  []DeleteFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Message string          `json:"message" yaml:"message"`
}

// DeleteFailure records one document that could not be deleted.
type DeleteFailure struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}
