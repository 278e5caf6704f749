package api

import (
	"github.com/samcharles93/scanstack/internal/stack"
	"github.com/samcharles93/scanstack/pkg/scanimage"
)

// IndexSpec holds one slice-notation expression per axis: y (row), x
// (col), c (channel), z (slice) and t (frame). Empty means the whole axis.
type IndexSpec struct {
	Y string `json:"y,omitempty"`
	X string `json:"x,omitempty"`
	C string `json:"c,omitempty"`
	Z string `json:"z,omitempty"`
	T string `json:"t,omitempty"`
}

type VolumeRequest struct {
	Index IndexSpec `json:"index"`
	Data  bool      `json:"data,omitempty"`
}

type VolumeResp struct {
	ID        string      `json:"id"`
	Object    string      `json:"object"`
	CreatedAt int64       `json:"created_at"`
	Index     IndexSpec   `json:"index"`
	Axes      []string    `json:"axes"`
	Shape     [5]int      `json:"shape"`
	Stats     stack.Stats `json:"stats"`
	Data      []int16     `json:"data,omitempty"`
}

type DeleteVolumeResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type AcquisitionResp struct {
	Object  string            `json:"object"`
	Files   int               `json:"files"`
	Pages   int               `json:"pages"`
	Axes    []string          `json:"axes"`
	Shape   [5]int            `json:"shape"`
	Summary scanimage.Summary `json:"summary"`
}

type HeaderResp struct {
	Object  string         `json:"object"`
	Dialect string         `json:"dialect"`
	Version string         `json:"version"`
	Fields  map[string]any `json:"fields"`
}

type FileEntry struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	First int    `json:"first_page"`
}

type FilesResp struct {
	Object string      `json:"object"`
	Data   []FileEntry `json:"data"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
}

type ErrorResp struct {
	Error ResponseError `json:"error"`
}

var axes = []string{"row", "col", "channel", "slice", "frame"}
