package tfevents

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from tensorflow/core/util/event.proto and
// tensorflow/core/framework/summary.proto.
const (
	fieldEventWallTime    protowire.Number = 1
	fieldEventStep        protowire.Number = 2
	fieldEventFileVersion protowire.Number = 3
	fieldEventSummary     protowire.Number = 5

	fieldSummaryValue protowire.Number = 1

	fieldValueTag         protowire.Number = 1
	fieldValueSimpleValue protowire.Number = 2
	fieldValueImage       protowire.Number = 4
	fieldValueAudio       protowire.Number = 6

	fieldImageHeight     protowire.Number = 1
	fieldImageWidth      protowire.Number = 2
	fieldImageColorspace protowire.Number = 3
	fieldImageEncoded    protowire.Number = 4

	fieldAudioSampleRate   protowire.Number = 1
	fieldAudioNumChannels  protowire.Number = 2
	fieldAudioLengthFrames protowire.Number = 3
	fieldAudioEncoded      protowire.Number = 4
	fieldAudioContentType  protowire.Number = 5
)

// FileVersion is written as the first event of every file.
const FileVersion = "brain.Event:2"

// Event is the subset of tensorflow.Event this package reads and writes.
type Event struct {
	WallTime    float64
	Step        int64
	FileVersion string
	Values      []Value
}

// Value is one Summary.Value; exactly one of the payload fields is set.
type Value struct {
	Tag    string
	Scalar *float32
	Image  *ImageSummary
	Audio  *AudioSummary
}

// Kind names the payload carried by v.
func (v Value) Kind() string {
	switch {
	case v.Scalar != nil:
		return "scalar"
	case v.Image != nil:
		return "image"
	case v.Audio != nil:
		return "audio"
	default:
		return "unknown"
	}
}

// PayloadSize is the encoded byte size of an image or audio payload, or 4
// for a scalar.
func (v Value) PayloadSize() int {
	switch {
	case v.Image != nil:
		return len(v.Image.Encoded)
	case v.Audio != nil:
		return len(v.Audio.Encoded)
	case v.Scalar != nil:
		return 4
	default:
		return 0
	}
}

type ImageSummary struct {
	Height     int32
	Width      int32
	Colorspace int32
	Encoded    []byte
}

type AudioSummary struct {
	SampleRate   float32
	NumChannels  int64
	LengthFrames int64
	Encoded      []byte
	ContentType  string
}

func (e Event) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldEventWallTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(e.WallTime))
	if e.Step != 0 {
		b = protowire.AppendTag(b, fieldEventStep, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Step))
	}
	if e.FileVersion != "" {
		b = protowire.AppendTag(b, fieldEventFileVersion, protowire.BytesType)
		b = protowire.AppendString(b, e.FileVersion)
	}
	if len(e.Values) > 0 {
		var summary []byte
		for _, v := range e.Values {
			summary = protowire.AppendTag(summary, fieldSummaryValue, protowire.BytesType)
			summary = protowire.AppendBytes(summary, v.marshal())
		}
		b = protowire.AppendTag(b, fieldEventSummary, protowire.BytesType)
		b = protowire.AppendBytes(b, summary)
	}

	return b
}

func (v Value) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldValueTag, protowire.BytesType)
	b = protowire.AppendString(b, v.Tag)

	switch {
	case v.Scalar != nil:
		b = protowire.AppendTag(b, fieldValueSimpleValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(*v.Scalar))
	case v.Image != nil:
		var img []byte
		img = protowire.AppendTag(img, fieldImageHeight, protowire.VarintType)
		img = protowire.AppendVarint(img, uint64(v.Image.Height))
		img = protowire.AppendTag(img, fieldImageWidth, protowire.VarintType)
		img = protowire.AppendVarint(img, uint64(v.Image.Width))
		img = protowire.AppendTag(img, fieldImageColorspace, protowire.VarintType)
		img = protowire.AppendVarint(img, uint64(v.Image.Colorspace))
		img = protowire.AppendTag(img, fieldImageEncoded, protowire.BytesType)
		img = protowire.AppendBytes(img, v.Image.Encoded)
		b = protowire.AppendTag(b, fieldValueImage, protowire.BytesType)
		b = protowire.AppendBytes(b, img)
	case v.Audio != nil:
		var au []byte
		au = protowire.AppendTag(au, fieldAudioSampleRate, protowire.Fixed32Type)
		au = protowire.AppendFixed32(au, math.Float32bits(v.Audio.SampleRate))
		au = protowire.AppendTag(au, fieldAudioNumChannels, protowire.VarintType)
		au = protowire.AppendVarint(au, uint64(v.Audio.NumChannels))
		au = protowire.AppendTag(au, fieldAudioLengthFrames, protowire.VarintType)
		au = protowire.AppendVarint(au, uint64(v.Audio.LengthFrames))
		au = protowire.AppendTag(au, fieldAudioEncoded, protowire.BytesType)
		au = protowire.AppendBytes(au, v.Audio.Encoded)
		au = protowire.AppendTag(au, fieldAudioContentType, protowire.BytesType)
		au = protowire.AppendString(au, v.Audio.ContentType)
		b = protowire.AppendTag(b, fieldValueAudio, protowire.BytesType)
		b = protowire.AppendBytes(b, au)
	}

	return b
}

// fieldFn handles one decoded field. raw holds the varint, fixed or
// length-delimited payload depending on typ.
type fieldFn func(num protowire.Number, typ protowire.Type, raw uint64, bytes []byte) error

// walk iterates the fields of a message, skipping groups.
func walk(b []byte, fn fieldFn) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]

		var (
			raw   uint64
			bytes []byte
		)
		switch typ {
		case protowire.VarintType:
			raw, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			raw = uint64(v)
		case protowire.Fixed64Type:
			raw, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrCorrupt, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, typ, raw, bytes); err != nil {
			return err
		}
	}

	return nil
}

func unmarshalEvent(b []byte) (Event, error) {
	var e Event
	err := walk(b, func(num protowire.Number, _ protowire.Type, raw uint64, bytes []byte) error {
		switch num {
		case fieldEventWallTime:
			e.WallTime = math.Float64frombits(raw)
		case fieldEventStep:
			e.Step = int64(raw)
		case fieldEventFileVersion:
			e.FileVersion = string(bytes)
		case fieldEventSummary:
			return walk(bytes, func(num protowire.Number, _ protowire.Type, _ uint64, bytes []byte) error {
				if num != fieldSummaryValue {
					return nil
				}
				v, err := unmarshalValue(bytes)
				if err != nil {
					return err
				}
				e.Values = append(e.Values, v)
				return nil
			})
		}
		return nil
	})

	return e, err
}

func unmarshalValue(b []byte) (Value, error) {
	var v Value
	err := walk(b, func(num protowire.Number, _ protowire.Type, raw uint64, bytes []byte) error {
		switch num {
		case fieldValueTag:
			v.Tag = string(bytes)
		case fieldValueSimpleValue:
			f := math.Float32frombits(uint32(raw))
			v.Scalar = &f
		case fieldValueImage:
			img := &ImageSummary{}
			v.Image = img
			return walk(bytes, func(num protowire.Number, _ protowire.Type, raw uint64, bytes []byte) error {
				switch num {
				case fieldImageHeight:
					img.Height = int32(raw)
				case fieldImageWidth:
					img.Width = int32(raw)
				case fieldImageColorspace:
					img.Colorspace = int32(raw)
				case fieldImageEncoded:
					img.Encoded = append([]byte(nil), bytes...)
				}
				return nil
			})
		case fieldValueAudio:
			au := &AudioSummary{}
			v.Audio = au
			return walk(bytes, func(num protowire.Number, _ protowire.Type, raw uint64, bytes []byte) error {
				switch num {
				case fieldAudioSampleRate:
					au.SampleRate = math.Float32frombits(uint32(raw))
				case fieldAudioNumChannels:
					au.NumChannels = int64(raw)
				case fieldAudioLengthFrames:
					au.LengthFrames = int64(raw)
				case fieldAudioEncoded:
					au.Encoded = append([]byte(nil), bytes...)
				case fieldAudioContentType:
					au.ContentType = string(bytes)
				}
				return nil
			})
		}
		return nil
	})

	return v, err
}
