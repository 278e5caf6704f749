package scanimage

import (
	"errors"
	"math"
	"testing"
)

func parseLines(t *testing.T, lines ...string) *Header {
	t.Helper()
	h, err := NewParser(nil, nil).Parse(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return h
}

func newAcq(t *testing.T, total int, lines ...string) *Acquisition {
	t.Helper()
	a, err := NewAcquisition(parseLines(t, lines...), total)
	if err != nil {
		t.Fatalf("acquisition: %v", err)
	}
	return a
}

func TestAcquisitionSI5(t *testing.T) {
	t.Parallel()

	a := newAcq(t, 100,
		"SI.hChannels.channelSave = [1;2]",
		"SI.hStackManager.numSlices = 5",
		"SI.hFastZ.enable = true",
		"SI.hRoiManager.scanFrameRate = 30.02",
		"SI.hRoiManager.scanVolumeRate = 6.004",
		"SI.hStackManager.stackZStepSize = 2.5",
		"SI.hScan2D.fillFractionTemporal = 0.712867",
		"SI.hFastZ.numVolumes = 10",
		"SI.hScan2D.bidirectional = false",
		"SI.hScan2D.scanPixelTimeMean = 1.6e-07",
		"SI.hRoiManager.scanZoomFactor = 2",
	)

	nc, err := a.NChannels()
	if err != nil || nc != 2 {
		t.Fatalf("channels: got %d, %v want 2", nc, err)
	}
	ns, err := a.NSlices()
	if err != nil || ns != 5 {
		t.Fatalf("slices: got %d, %v want 5", ns, err)
	}
	nf, err := a.NFrames()
	if err != nil || nf != 10 {
		t.Fatalf("frames: got %d, %v want 10", nf, err)
	}
	structural, err := a.IsStructural()
	if err != nil || structural {
		t.Fatalf("structural: got %v, %v want false", structural, err)
	}
	fps, err := a.FPS()
	if err != nil || fps != 6.004 {
		t.Fatalf("fps: got %v, %v want volume rate 6.004", fps, err)
	}
	z, err := a.ZStep()
	if err != nil || z != 2.5 {
		t.Fatalf("z-step: got %v, %v", z, err)
	}
	bidi, err := a.Bidirectional()
	if err != nil || bidi {
		t.Fatalf("bidirectional: got %v, %v want false", bidi, err)
	}
	dwell, err := a.DwellTime()
	if err != nil || math.Abs(dwell-0.16) > 1e-12 {
		t.Fatalf("dwell: got %v, %v want 0.16us", dwell, err)
	}
	req, err := a.RequestedFrames()
	if err != nil || req != 10 {
		t.Fatalf("requested: got %d, %v", req, err)
	}
}

func TestAcquisitionStructuralUsesFrameRate(t *testing.T) {
	t.Parallel()

	a := newAcq(t, 12,
		"SI.hChannels.channelSave = 1",
		"SI.hStackManager.numSlices = 3",
		"SI.hFastZ.enable = 0",
		"SI.hRoiManager.scanFrameRate = 15",
		"SI.hRoiManager.scanVolumeRate = 5",
	)
	structural, err := a.IsStructural()
	if err != nil || !structural {
		t.Fatalf("structural: got %v, %v want true", structural, err)
	}
	fps, err := a.FPS()
	if err != nil || fps != 15 {
		t.Fatalf("fps: got %v, %v want 15", fps, err)
	}
}

func TestAcquisitionSI4(t *testing.T) {
	t.Parallel()

	a := newAcq(t, 24,
		"scanimage.SI4.channelsSave = 1",
		"scanimage.SI4.stackNumSlices = 4",
		"scanimage.SI4.fastZActive = 1",
		"scanimage.SI4.fastZPeriod = 0.25",
		"scanimage.SI4.scanFrameRate = 16",
		"scanimage.SI4.stackZStepSize = 3",
		"scanimage.SI4.scanMode = 'bidirectional'",
		"scanimage.SI4.fastZNumVolumes = 6",
		"scanimage.SI4.acqNumFrames = 1",
	)
	fps, err := a.FPS()
	if err != nil || fps != 4 {
		t.Fatalf("fps: got %v, %v want 4", fps, err)
	}
	z, err := a.ZStep()
	if err != nil || z != 3 {
		t.Fatalf("z-step: got %v, %v want 3", z, err)
	}
	bidi, err := a.Bidirectional()
	if err != nil || !bidi {
		t.Fatalf("bidirectional: got %v, %v want true", bidi, err)
	}
	req, err := a.RequestedFrames()
	if err != nil || req != 6 {
		t.Fatalf("requested: got %d, %v want 6", req, err)
	}
	nf, err := a.NFrames()
	if err != nil || nf != 6 {
		t.Fatalf("frames: got %d, %v want 6", nf, err)
	}
}

func TestAcquisitionSI4SlowZ(t *testing.T) {
	t.Parallel()

	a := newAcq(t, 10,
		"scanimage.SI4.channelsSave = 1",
		"scanimage.SI4.stackNumSlices = 1",
		"scanimage.SI4.fastZActive = 0",
		"scanimage.SI4.scanFrameRate = 7.5",
		"scanimage.SI4.stackZStepSize = 3",
		"scanimage.SI4.scanMode = 'uni'",
	)
	fps, err := a.FPS()
	if err != nil || fps != 7.5 {
		t.Fatalf("fps: got %v, %v want 7.5", fps, err)
	}
	z, err := a.ZStep()
	if err != nil || z != 0 {
		t.Fatalf("z-step: got %v, %v want 0 without fast-z", z, err)
	}
	bidi, err := a.Bidirectional()
	if err != nil || bidi {
		t.Fatalf("bidirectional: got %v, %v want false", bidi, err)
	}
}

func TestNFramesTruncates(t *testing.T) {
	t.Parallel()

	a := newAcq(t, 10,
		"SI.hChannels.channelSave = [1 2]",
		"SI.hStackManager.numSlices = 2",
	)
	nf, err := a.NFrames()
	if err != nil || nf != 2 {
		t.Fatalf("frames: got %d, %v want 2", nf, err)
	}
}

func TestMissingFieldIsolated(t *testing.T) {
	t.Parallel()

	a := newAcq(t, 6,
		"SI.hChannels.channelSave = [1 2 3]",
		"SI.hStackManager.numSlices = 2",
	)
	if n, err := a.NChannels(); err != nil || n != 3 {
		t.Fatalf("channels: got %d, %v", n, err)
	}

	_, err := a.FPS()
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("fps: got %v want ErrMissingField", err)
	}
	var mf *MissingFieldError
	if !errors.As(err, &mf) {
		t.Fatalf("fps: error %T is not *MissingFieldError", err)
	}
	if mf.Field != "hFastZ_enable" && mf.Field != "hRoiManager_scanFrameRate" {
		t.Fatalf("missing field: got %q", mf.Field)
	}

	s := a.Summary()
	if s.NChannels == nil || *s.NChannels != 3 {
		t.Fatalf("summary channels: got %v", s.NChannels)
	}
	if s.NFrames == nil || *s.NFrames != 1 {
		t.Fatalf("summary frames: got %v", s.NFrames)
	}
	if s.FPS != nil || s.Zoom != nil {
		t.Fatalf("summary should leave underivable fields nil")
	}
	if len(s.Missing) == 0 {
		t.Fatalf("summary should list missing fields")
	}
}

func TestNewAcquisitionRejects(t *testing.T) {
	t.Parallel()

	if _, err := NewAcquisition(nil, 1); err == nil {
		t.Fatalf("expected error for nil header")
	}
	h := parseLines(t, "SI.a = 1")
	if _, err := NewAcquisition(h, -1); err == nil {
		t.Fatalf("expected error for negative page count")
	}

	old, err := CompileDialect("3", "3.8", `^state\.(?P<attr>[\.\w]*)\s*=\s*(?P<value>.*\S)\s*$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	h, err = NewParser([]Dialect{old}, nil).Parse([]string{"state.acq.numberOfFrames = 4"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := NewAcquisition(h, 4); !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("got %v want ErrVersionNotFound", err)
	}
}
