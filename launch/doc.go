// Package launch builds pipelines from descriptions: gst-launch style text,
// YAML files, or the playbin preset.
//
//	p, err := launch.Parse(factory, "videotestsrc pattern=0 ! vertigotv ! videoconvert ! autovideosink")
//
// A YAML description lists elements and links:
//
//	name: player
//	elements:
//	  - kind: uridecodebin
//	    name: source
//	    properties:
//	      uri: file:///media/sintel.webm
//	  - kind: audioconvert
//	    name: convert
//	  - kind: autoaudiosink
//	    name: sink
//	links:
//	  - from: source
//	    to: convert
//	  - from: convert
//	    to: sink
//
// Links from elements without static src pads, such as uridecodebin, are
// made at runtime by a pipeline.AutoLinker.
package launch
