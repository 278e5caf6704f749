package scanimage

import (
	"sort"

	"github.com/blang/semver"
)

// fieldTable names the header keys that carry each acquisition property
// for one range of firmware versions. An empty key means the dialect has no
// such field.
type fieldTable struct {
	name       string
	minVersion semver.Version

	channelSave string
	numSlices   string

	// zEnable is the z-stepping switch; when it is zero the acquisition is
	// structural.
	zEnable     string
	fastZActive string
	fastZPeriod string

	frameRate  string
	volumeRate string

	zStep          string
	zStepNeedsFast bool

	fillFraction string

	requestedFrames  string
	requestedVolumes string

	bidirectional string
	scanMode      string

	pixelTime string
	zoom      string
}

var fieldTables = []*fieldTable{
	{
		name:             "SI4",
		minVersion:       semver.MustParse("4.0.0"),
		channelSave:      "channelsSave",
		numSlices:        "stackNumSlices",
		zEnable:          "fastZActive",
		fastZActive:      "fastZActive",
		fastZPeriod:      "fastZPeriod",
		frameRate:        "scanFrameRate",
		zStep:            "stackZStepSize",
		zStepNeedsFast:   true,
		fillFraction:     "scanFillFraction",
		requestedFrames:  "acqNumFrames",
		requestedVolumes: "fastZNumVolumes",
		scanMode:         "scanMode",
		pixelTime:        "scanPixelTimeMean",
		zoom:             "scanZoomFactor",
	},
	{
		name:            "SI5",
		minVersion:      semver.MustParse("5.0.0"),
		channelSave:     "hChannels_channelSave",
		numSlices:       "hStackManager_numSlices",
		zEnable:         "hFastZ_enable",
		fastZActive:     "hFastZ_enable",
		frameRate:       "hRoiManager_scanFrameRate",
		volumeRate:      "hRoiManager_scanVolumeRate",
		zStep:           "hStackManager_stackZStepSize",
		fillFraction:    "hScan2D_fillFractionTemporal",
		requestedFrames: "hFastZ_numVolumes",
		bidirectional:   "hScan2D_bidirectional",
		pixelTime:       "hScan2D_scanPixelTimeMean",
		zoom:            "hRoiManager_scanZoomFactor",
	},
}

func init() {
	sort.Slice(fieldTables, func(i, j int) bool {
		return fieldTables[i].minVersion.LT(fieldTables[j].minVersion)
	})
}

// tableFor returns the newest table whose minimum version does not exceed v.
func tableFor(v semver.Version) *fieldTable {
	var best *fieldTable
	for _, t := range fieldTables {
		if v.GTE(t.minVersion) {
			best = t
		}
	}
	return best
}
