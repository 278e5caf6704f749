package tifffile

import "errors"

var (
	ErrCorruptFile     = errors.New("corrupt TIFF file")
	ErrBigTIFF         = errors.New("BigTIFF files are not supported")
	ErrUnsupportedPage = errors.New("unsupported TIFF page layout")
	ErrPageRange       = errors.New("TIFF page index out of range")
)
