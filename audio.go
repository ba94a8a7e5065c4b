package main

import (
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// TagInfo holds the tags the planner cares about. Zero values mean the tag
// is absent.
type TagInfo struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        string
	Track       int
	Disc        int
}

type AudioInfo struct {
	Codec      string
	Container  string
	Duration   float64
	Bitrate    int
	SampleRate int
	Channels   int
}

// Prober extracts container and tag metadata from an audio file.
type Prober interface {
	Probe(filePath string) (AudioInfo, error)
	ReadTags(filePath string) (TagInfo, error)
	HasEmbeddedArt(filePath string) bool
}

// Fingerprinter computes an acoustic fingerprint. Failure means "no
// fingerprint", never a scan error.
type Fingerprinter interface {
	Fingerprint(filePath string) (string, error)
}

var ErrNoFingerprint = errors.New("no fingerprint produced")

// FpcalcFingerprinter shells out to chromaprint's fpcalc.
type FpcalcFingerprinter struct{}

func (f *FpcalcFingerprinter) Fingerprint(filePath string) (string, error) {
	command := exec.Command("fpcalc", "-json", filePath)
	output, err := command.Output()

	if err != nil {
		return "", err
	}

	var payload struct {
		Fingerprint string `json:"fingerprint"`
	}

	err = json.Unmarshal(output, &payload)

	if err != nil {
		return "", err
	}

	if payload.Fingerprint == "" {
		return "", ErrNoFingerprint
	}

	return payload.Fingerprint, nil
}

// FfprobeProber shells out to ffprobe for container, stream and tag data.
type FfprobeProber struct{}

type ffprobeOutput struct {
	Format struct {
		FormatName string            `json:"format_name"`
		Duration   string            `json:"duration"`
		BitRate    string            `json:"bit_rate"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType   string            `json:"codec_type"`
		CodecName   string            `json:"codec_name"`
		SampleRate  string            `json:"sample_rate"`
		Channels    int               `json:"channels"`
		Tags        map[string]string `json:"tags"`
		Disposition struct {
			AttachedPic int `json:"attached_pic"`
		} `json:"disposition"`
	} `json:"streams"`
}

func (p *FfprobeProber) probe(filePath string) (*ffprobeOutput, error) {
	command := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", filePath)
	output, err := command.Output()

	if err != nil {
		return nil, err
	}

	probed := &ffprobeOutput{}

	err = json.Unmarshal(output, probed)

	if err != nil {
		return nil, err
	}

	return probed, nil
}

func (p *FfprobeProber) Probe(filePath string) (AudioInfo, error) {
	probed, err := p.probe(filePath)

	if err != nil {
		return AudioInfo{}, err
	}

	info := AudioInfo{
		Container: probed.Format.FormatName,
	}

	info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	info.Bitrate, _ = strconv.Atoi(probed.Format.BitRate)

	for _, stream := range probed.Streams {
		if stream.CodecType != "audio" {
			continue
		}

		info.Codec = stream.CodecName
		info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
		info.Channels = stream.Channels
		break
	}

	return info, nil
}

func (p *FfprobeProber) ReadTags(filePath string) (TagInfo, error) {
	probed, err := p.probe(filePath)

	if err != nil {
		return TagInfo{}, err
	}

	tags := map[string]string{}

	// Stream tags first so format-level tags win
	for _, stream := range probed.Streams {
		for key, value := range stream.Tags {
			tags[strings.ToLower(key)] = value
		}
	}

	for key, value := range probed.Format.Tags {
		tags[strings.ToLower(key)] = value
	}

	return TagInfo{
		Title:       firstTag(tags, "title"),
		Artist:      firstTag(tags, "artist"),
		Album:       firstTag(tags, "album"),
		AlbumArtist: firstTag(tags, "album_artist", "albumartist", "album artist"),
		Year:        firstTag(tags, "date", "year"),
		Track:       parseTrack(firstTag(tags, "track", "tracknumber")),
		Disc:        parseTrack(firstTag(tags, "disc", "discnumber")),
	}, nil
}

func (p *FfprobeProber) HasEmbeddedArt(filePath string) bool {
	probed, err := p.probe(filePath)

	if err != nil {
		return false
	}

	for _, stream := range probed.Streams {
		if stream.CodecType == "video" && stream.Disposition.AttachedPic == 1 {
			return true
		}
	}

	return false
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if value, found := tags[key]; found && value != "" {
			return value
		}
	}

	return ""
}

// parseTrack accepts "3" and "3/12" forms.
func parseTrack(value string) int {
	if value == "" {
		return 0
	}

	if index := strings.Index(value, "/"); index >= 0 {
		value = value[:index]
	}

	number, err := strconv.Atoi(strings.TrimSpace(value))

	if err != nil {
		return 0
	}

	return number
}
