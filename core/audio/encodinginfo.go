package audio

const (
	DefaultSampleRate = 48000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
