package stack

import "fmt"

// VolumeIndex maps (channel, slice, frame) to a global page id.
//
// Pages are stored channel-fastest. In a normal acquisition slices vary
// next and frames slowest; in a structural acquisition (z-stepping
// disabled) frames vary before slices.
type VolumeIndex struct {
	channels   int
	slices     int
	frames     int
	structural bool
}

// NewVolumeIndex validates that the dimensions account for every page.
func NewVolumeIndex(total, channels, slices, frames int, structural bool) (*VolumeIndex, error) {
	if channels <= 0 || slices <= 0 || frames < 0 || channels*slices*frames != total {
		return nil, &ShapeMismatchError{Total: total, Channels: channels, Slices: slices, Frames: frames}
	}
	return &VolumeIndex{channels: channels, slices: slices, frames: frames, structural: structural}, nil
}

// Dims returns (channels, slices, frames).
func (v *VolumeIndex) Dims() (int, int, int) {
	return v.channels, v.slices, v.frames
}

func (v *VolumeIndex) Structural() bool { return v.structural }

func (v *VolumeIndex) Total() int { return v.channels * v.slices * v.frames }

func (v *VolumeIndex) At(c, s, f int) (int, error) {
	if c < 0 || c >= v.channels || s < 0 || s >= v.slices || f < 0 || f >= v.frames {
		return 0, fmt.Errorf("%w: (c=%d, z=%d, t=%d) outside %dx%dx%d", ErrOutOfRange, c, s, f, v.channels, v.slices, v.frames)
	}
	if v.structural {
		return (s*v.frames+f)*v.channels + c, nil
	}
	return (f*v.slices+s)*v.channels + c, nil
}

// Coord is the inverse of At.
func (v *VolumeIndex) Coord(g int) (c, s, f int, err error) {
	if g < 0 || g >= v.Total() {
		return 0, 0, 0, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, g, v.Total())
	}
	c = g % v.channels
	rest := g / v.channels
	if v.structural {
		return c, rest / v.frames, rest % v.frames, nil
	}
	return c, rest % v.slices, rest / v.slices, nil
}
