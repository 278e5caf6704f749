package scanimage

import (
	"errors"
	"fmt"
)

// Acquisition derives named acquisition parameters from a parsed header.
// Every accessor is independent: a field missing for one property does not
// affect the others.
type Acquisition struct {
	header     *Header
	fields     *fieldTable
	totalPages int
}

// NewAcquisition binds a header to the field table of its dialect.
// totalPages is the number of pages across all source files and is used to
// derive the frame count.
func NewAcquisition(h *Header, totalPages int) (*Acquisition, error) {
	if h == nil {
		return nil, errors.New("scanimage: nil header")
	}
	if totalPages < 0 {
		return nil, fmt.Errorf("scanimage: negative page count %d", totalPages)
	}
	t := tableFor(h.Dialect.Version)
	if t == nil {
		return nil, fmt.Errorf("%w: no field table for dialect %s (%s)", ErrVersionNotFound, h.Dialect.Label, h.Dialect.Version)
	}
	return &Acquisition{header: h, fields: t, totalPages: totalPages}, nil
}

func (a *Acquisition) Header() *Header  { return a.header }
func (a *Acquisition) Dialect() Dialect { return a.header.Dialect }
func (a *Acquisition) TotalPages() int  { return a.totalPages }

func (a *Acquisition) value(property, key string) (Value, error) {
	if key == "" {
		return Value{}, &MissingFieldError{Property: property, Dialect: a.header.Dialect.Label}
	}
	v, ok := a.header.Lookup(key)
	if !ok {
		return Value{}, &MissingFieldError{Property: property, Field: key, Dialect: a.header.Dialect.Label}
	}
	return v, nil
}

func (a *Acquisition) floatField(property, key string) (float64, error) {
	v, err := a.value(property, key)
	if err != nil {
		return 0, err
	}
	f, err := v.Float()
	if err != nil {
		return 0, fmt.Errorf("scanimage: %s (%s): %w", property, key, err)
	}
	return f, nil
}

func (a *Acquisition) intField(property, key string) (int, error) {
	v, err := a.value(property, key)
	if err != nil {
		return 0, err
	}
	n, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("scanimage: %s (%s): %w", property, key, err)
	}
	return n, nil
}

func (a *Acquisition) boolField(property, key string) (bool, error) {
	v, err := a.value(property, key)
	if err != nil {
		return false, err
	}
	b, err := v.Bool()
	if err != nil {
		return false, fmt.Errorf("scanimage: %s (%s): %w", property, key, err)
	}
	return b, nil
}

// Channels returns the saved channel list with unit dimensions squeezed.
func (a *Acquisition) Channels() ([]float64, error) {
	v, err := a.value("channels", a.fields.channelSave)
	if err != nil {
		return nil, err
	}
	if !v.numeric() {
		return nil, fmt.Errorf("scanimage: channels (%s): %s value", a.fields.channelSave, v.Kind)
	}
	return v.Squeeze(), nil
}

func (a *Acquisition) NChannels() (int, error) {
	ch, err := a.Channels()
	if err != nil {
		return 0, err
	}
	return len(ch), nil
}

func (a *Acquisition) NSlices() (int, error) {
	return a.intField("slices", a.fields.numSlices)
}

// IsStructural reports whether z-stepping is disabled, which changes how
// slices and frames nest in storage order.
func (a *Acquisition) IsStructural() (bool, error) {
	enabled, err := a.boolField("structural", a.fields.zEnable)
	if err != nil {
		return false, err
	}
	return !enabled, nil
}

// NFrames is totalPages / channels / slices. A remainder is discarded.
func (a *Acquisition) NFrames() (int, error) {
	nc, err := a.NChannels()
	if err != nil {
		return 0, err
	}
	ns, err := a.NSlices()
	if err != nil {
		return 0, err
	}
	if nc <= 0 || ns <= 0 {
		return 0, fmt.Errorf("scanimage: cannot derive frames from %d channels and %d slices", nc, ns)
	}
	return a.totalPages / nc / ns, nil
}

func (a *Acquisition) fastZ() (bool, error) {
	return a.boolField("fast-z", a.fields.fastZActive)
}

// FPS is the frame rate of the acquisition's time axis: 1/period when
// volumetric fast-z stepping is active, the volume rate for multi-slice
// time series and the plain frame rate otherwise.
func (a *Acquisition) FPS() (float64, error) {
	if a.fields.fastZPeriod != "" {
		active, err := a.fastZ()
		if err != nil {
			return 0, err
		}
		if active {
			period, err := a.floatField("fps", a.fields.fastZPeriod)
			if err != nil {
				return 0, err
			}
			if period == 0 {
				return 0, fmt.Errorf("scanimage: fps: zero fast-z period")
			}
			return 1 / period, nil
		}
	}

	ns, err := a.NSlices()
	if err != nil {
		return 0, err
	}
	if ns > 1 && a.fields.volumeRate != "" {
		structural, err := a.IsStructural()
		if err != nil {
			return 0, err
		}
		if !structural {
			return a.floatField("fps", a.fields.volumeRate)
		}
	}
	return a.floatField("fps", a.fields.frameRate)
}

// ZStep is the slice pitch. Dialects that only step z in fast-z mode report
// zero otherwise.
func (a *Acquisition) ZStep() (float64, error) {
	if a.fields.zStepNeedsFast {
		active, err := a.fastZ()
		if err != nil {
			return 0, err
		}
		if !active {
			return 0, nil
		}
	}
	return a.floatField("z-step", a.fields.zStep)
}

func (a *Acquisition) FillFraction() (float64, error) {
	return a.floatField("fill fraction", a.fields.fillFraction)
}

// RequestedFrames is the frame (or volume) count the operator asked for,
// which may differ from NFrames for aborted acquisitions.
func (a *Acquisition) RequestedFrames() (int, error) {
	if a.fields.requestedVolumes != "" {
		active, err := a.fastZ()
		if err != nil {
			return 0, err
		}
		if active {
			return a.intField("requested frames", a.fields.requestedVolumes)
		}
	}
	return a.intField("requested frames", a.fields.requestedFrames)
}

func (a *Acquisition) Bidirectional() (bool, error) {
	if a.fields.scanMode != "" {
		v, err := a.value("bidirectional", a.fields.scanMode)
		if err != nil {
			return false, err
		}
		mode, err := v.Text()
		if err != nil {
			return false, fmt.Errorf("scanimage: bidirectional (%s): %w", a.fields.scanMode, err)
		}
		return mode != "uni", nil
	}
	return a.boolField("bidirectional", a.fields.bidirectional)
}

// DwellTime is the mean pixel dwell time in microseconds.
func (a *Acquisition) DwellTime() (float64, error) {
	t, err := a.floatField("dwell time", a.fields.pixelTime)
	if err != nil {
		return 0, err
	}
	return t * 1e6, nil
}

func (a *Acquisition) Zoom() (float64, error) {
	return a.floatField("zoom", a.fields.zoom)
}

// Summary is a snapshot of every derivable property. Properties that could
// not be derived are nil and their errors are listed in Missing.
type Summary struct {
	Dialect         string    `json:"dialect" yaml:"dialect"`
	TotalPages      int       `json:"total_pages" yaml:"total_pages"`
	Channels        []float64 `json:"channels,omitempty" yaml:"channels,omitempty"`
	NChannels       *int      `json:"n_channels,omitempty" yaml:"n_channels,omitempty"`
	NSlices         *int      `json:"n_slices,omitempty" yaml:"n_slices,omitempty"`
	NFrames         *int      `json:"n_frames,omitempty" yaml:"n_frames,omitempty"`
	Structural      *bool     `json:"structural,omitempty" yaml:"structural,omitempty"`
	FPS             *float64  `json:"fps,omitempty" yaml:"fps,omitempty"`
	ZStep           *float64  `json:"z_step,omitempty" yaml:"z_step,omitempty"`
	FillFraction    *float64  `json:"fill_fraction,omitempty" yaml:"fill_fraction,omitempty"`
	RequestedFrames *int      `json:"requested_frames,omitempty" yaml:"requested_frames,omitempty"`
	Bidirectional   *bool     `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
	DwellTimeUS     *float64  `json:"dwell_time_us,omitempty" yaml:"dwell_time_us,omitempty"`
	Zoom            *float64  `json:"zoom,omitempty" yaml:"zoom,omitempty"`
	Missing         []string  `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func (a *Acquisition) Summary() Summary {
	s := Summary{
		Dialect:    a.header.Dialect.Label,
		TotalPages: a.totalPages,
	}
	note := func(err error) {
		s.Missing = append(s.Missing, err.Error())
	}

	if ch, err := a.Channels(); err != nil {
		note(err)
	} else {
		s.Channels = ch
		s.NChannels = ptr(len(ch))
	}
	if n, err := a.NSlices(); err != nil {
		note(err)
	} else {
		s.NSlices = &n
	}
	if s.NChannels != nil && s.NSlices != nil {
		if n, err := a.NFrames(); err != nil {
			note(err)
		} else {
			s.NFrames = &n
		}
	}
	if b, err := a.IsStructural(); err != nil {
		note(err)
	} else {
		s.Structural = &b
	}
	if f, err := a.FPS(); err != nil {
		note(err)
	} else {
		s.FPS = &f
	}
	if f, err := a.ZStep(); err != nil {
		note(err)
	} else {
		s.ZStep = &f
	}
	if f, err := a.FillFraction(); err != nil {
		note(err)
	} else {
		s.FillFraction = &f
	}
	if n, err := a.RequestedFrames(); err != nil {
		note(err)
	} else {
		s.RequestedFrames = &n
	}
	if b, err := a.Bidirectional(); err != nil {
		note(err)
	} else {
		s.Bidirectional = &b
	}
	if f, err := a.DwellTime(); err != nil {
		note(err)
	} else {
		s.DwellTimeUS = &f
	}
	if f, err := a.Zoom(); err != nil {
		note(err)
	} else {
		s.Zoom = &f
	}
	return s
}

func ptr[T any](v T) *T {
	return &v
}
