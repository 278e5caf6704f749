// Package api serves an open acquisition over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/scanstack/internal/logger"
	"github.com/samcharles93/scanstack/internal/stack"
	"github.com/samcharles93/scanstack/internal/version"
	"github.com/samcharles93/scanstack/pkg/scanimage"
)

// Volume is the read surface of an open acquisition. *stack.Reader
// implements it.
type Volume interface {
	Files() []string
	FileIndex() *stack.FileIndex
	Header() *scanimage.Header
	Acquisition() *scanimage.Acquisition
	Dims() ([5]int, error)
	Read(sels ...stack.Sel) (*stack.Array, error)
}

type Server struct {
	vol   Volume
	store *VolumeStore
	log   logger.Logger
	clock func() time.Time
}

func NewServer(vol Volume, store *VolumeStore, log logger.Logger) *Server {
	if store == nil {
		store = NewVolumeStore(64)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		vol:   vol,
		store: store,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/version", s.handleVersion)

	// Acquisition metadata
	e.GET("/v1/acquisition", s.handleAcquisition)
	e.GET("/v1/header", s.handleHeader)
	e.GET("/v1/files", s.handleFiles)

	// Slicing
	e.GET("/v1/volume", s.handleSlice)
	e.POST("/v1/volumes", s.handleCreateVolume)
	e.GET("/v1/volumes/:id", s.handleGetVolume)
	e.DELETE("/v1/volumes/:id", s.handleDeleteVolume)
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.Resolve())
}

func (s *Server) handleAcquisition(c *echo.Context) error {
	dims, err := s.vol.Dims()
	if err != nil {
		return s.writeReadError(c, err)
	}
	idx := s.vol.FileIndex()
	return c.JSON(http.StatusOK, AcquisitionResp{
		Object:  "acquisition",
		Files:   idx.Files(),
		Pages:   idx.Total(),
		Axes:    axes,
		Shape:   dims,
		Summary: s.vol.Acquisition().Summary(),
	})
}

func (s *Server) handleHeader(c *echo.Context) error {
	h := s.vol.Header()
	fields := make(map[string]any, len(h.Fields))
	for k, v := range h.Fields {
		fields[k] = v.Interface()
	}
	return c.JSON(http.StatusOK, HeaderResp{
		Object:  "header",
		Dialect: h.Dialect.Label,
		Version: h.Dialect.Version.String(),
		Fields:  fields,
	})
}

func (s *Server) handleFiles(c *echo.Context) error {
	idx := s.vol.FileIndex()
	paths := s.vol.Files()
	out := make([]FileEntry, len(paths))
	first := 0
	for i, p := range paths {
		n := idx.Count(i)
		out[i] = FileEntry{Path: p, Pages: n, First: first}
		first += n
	}
	return c.JSON(http.StatusOK, FilesResp{Object: "list", Data: out})
}

func (s *Server) handleSlice(c *echo.Context) error {
	index := IndexSpec{
		Y: c.QueryParam("y"),
		X: c.QueryParam("x"),
		C: c.QueryParam("c"),
		Z: c.QueryParam("z"),
		T: c.QueryParam("t"),
	}
	resp, err := s.slice(index, queryBool(c, "data"))
	if err != nil {
		return s.writeReadError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateVolume(c *echo.Context) error {
	req, err := decodeJSON[VolumeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body")
	}
	resp, err := s.slice(req.Index, req.Data)
	if err != nil {
		return s.writeReadError(c, err)
	}
	s.store.Put(resp)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetVolume(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "volume not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteVolume(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "volume not found")
	}
	return c.JSON(http.StatusOK, DeleteVolumeResp{ID: id, Object: "volume.deleted", Deleted: true})
}

func (s *Server) slice(index IndexSpec, data bool) (VolumeResp, error) {
	sels, err := parseIndex(index)
	if err != nil {
		return VolumeResp{}, err
	}
	start := s.clock()
	arr, err := s.vol.Read(sels...)
	if err != nil {
		return VolumeResp{}, err
	}
	resp := VolumeResp{
		ID:        newVolumeID(),
		Object:    "volume",
		CreatedAt: start.Unix(),
		Index:     index,
		Axes:      axes,
		Shape:     arr.Shape,
		Stats:     arr.Stats(),
	}
	if data {
		resp.Data = arr.Data
	}
	s.log.Debug("served slice", "id", resp.ID, "shape", arr.Shape, "elapsed", s.clock().Sub(start))
	return resp, nil
}

// parseIndex turns the per-axis expressions into selections in axis order.
func parseIndex(index IndexSpec) ([]stack.Sel, error) {
	exprs := [...]struct{ axis, expr string }{
		{"y", index.Y}, {"x", index.X}, {"c", index.C}, {"z", index.Z}, {"t", index.T},
	}
	sels := make([]stack.Sel, len(exprs))
	for i, e := range exprs {
		sel, err := stack.ParseSel(e.expr)
		if err != nil {
			return nil, newInvalidRequest(fmt.Sprintf("%s: %v", e.axis, err))
		}
		sels[i] = sel
	}
	return sels, nil
}
