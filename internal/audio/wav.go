package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Format describes the PCM layout of a decoded WAV payload.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

var errShortWAV = errors.New("wav payload truncated")

// DecodeWAV splits a RIFF/WAVE payload into its format and raw PCM
// data. Only uncompressed PCM (format tag 1) is accepted, which is
// what the VOICEVOX-compatible engines emit.
func DecodeWAV(wav []byte) (Format, []byte, error) {
	var f Format

	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return f, nil, errors.New("not a RIFF/WAVE payload")
	}

	var data []byte
	haveFmt := false

	// Walk the chunk list; fmt and data can appear in any order and
	// other chunks (LIST, fact) are skipped.
	off := 12
	for off+8 <= len(wav) {
		id := string(wav[off : off+4])
		size := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if body+size > len(wav) {
			return f, nil, errShortWAV
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return f, nil, errors.New("wav fmt chunk too small")
			}
			tag := binary.LittleEndian.Uint16(wav[body : body+2])
			if tag != 1 {
				return f, nil, fmt.Errorf("unsupported wav format tag %d (want PCM)", tag)
			}
			f.Channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			f.BitDepth = int(binary.LittleEndian.Uint16(wav[body+14 : body+16]))
			haveFmt = true
		case "data":
			data = wav[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return f, nil, errors.New("wav payload has no fmt chunk")
	}
	if data == nil {
		return f, nil, errors.New("wav payload has no data chunk")
	}
	if f.Channels < 1 || f.SampleRate <= 0 || f.BitDepth != 16 {
		return f, nil, fmt.Errorf("unsupported wav layout: %d ch, %d Hz, %d bit", f.Channels, f.SampleRate, f.BitDepth)
	}
	return f, data, nil
}
