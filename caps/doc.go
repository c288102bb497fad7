// Package caps models stream capabilities: the media type a pad produces or
// accepts, with optional field constraints such as sample rate or frame size.
//
// Capabilities are matched with Compatible when deciding whether two pads may
// be linked, and narrowed with Intersect to the format both ends agree on.
//
//	a := caps.MustParse("audio/x-raw,rate=[8000,96000],channels={1,2}")
//	b := caps.MustParse("audio/x-raw,rate=44100")
//	caps.Compatible(a, b) // true
//	n, _ := caps.Intersect(a, b)
//	n.String() // audio/x-raw,rate=44100,channels={1,2}
package caps
