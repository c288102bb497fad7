package launch

import (
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/pipeline"
)

// Names of the elements NewPlaybin creates.
const (
	PlaybinSource        = "source"
	PlaybinAudioConvert  = "audio_convert"
	PlaybinAudioResample = "audio_resample"
	PlaybinAudioSink     = "audio_sink"
	PlaybinVideoConvert  = "video_convert"
	PlaybinVideoSink     = "video_sink"
)

// NewPlaybin builds a player for uri: a uridecodebin whose pads are linked
// at runtime to an audio branch (audioconvert ! audioresample !
// autoaudiosink) and a video branch (videoconvert ! autovideosink). The
// decoder is left unlinked; pair the pipeline with a pipeline.AutoLinker.
func NewPlaybin(f *element.Factory, uri string, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	source, err := f.Make("uridecodebin", PlaybinSource, map[string]any{"uri": uri})
	if err != nil {
		return nil, err
	}
	els := []*element.Element{source}
	for _, spec := range []struct{ kind, name string }{
		{"audioconvert", PlaybinAudioConvert},
		{"audioresample", PlaybinAudioResample},
		{"autoaudiosink", PlaybinAudioSink},
		{"videoconvert", PlaybinVideoConvert},
		{"autovideosink", PlaybinVideoSink},
	} {
		el, err := f.Make(spec.kind, spec.name, nil)
		if err != nil {
			return nil, err
		}
		els = append(els, el)
	}

	p := pipeline.New("playbin", opts...)
	if err := p.Add(els...); err != nil {
		return nil, err
	}
	if err := p.LinkMany(els[1], els[2], els[3]); err != nil {
		return nil, errors.LinkFailed(PlaybinAudioConvert, PlaybinAudioSink, "elements could not be linked").WithCause(err)
	}
	if err := p.LinkElements(els[4], els[5]); err != nil {
		return nil, errors.LinkFailed(PlaybinVideoConvert, PlaybinVideoSink, "elements could not be linked").WithCause(err)
	}
	return p, nil
}
