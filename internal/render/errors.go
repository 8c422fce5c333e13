package render

import "errors"

var (
	// ErrBadSize indicates non-positive dimensions, quality or downscale.
	ErrBadSize = errors.New("render: invalid frame settings")

	// ErrEmptyExtent indicates a config whose recorded extents span no area.
	ErrEmptyExtent = errors.New("render: config has an empty bounding box")
)
