package caps

import "testing"

func TestParse_Fields(t *testing.T) {
	c, err := Parse("video/x-raw,width=640,height=[240,1080],format={I420,RGB},framerate=(float)29.97")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Tag() != "video/x-raw" {
		t.Errorf("expected tag video/x-raw, got %s", c.Tag())
	}
	if c.Family() != "video" {
		t.Errorf("expected family video, got %s", c.Family())
	}
	w, ok := c.Field("width")
	if !ok {
		t.Fatal("expected width field")
	}
	if n, _ := w.AsInt(); n != 640 {
		t.Errorf("expected width 640, got %v", w)
	}
	h, _ := c.Field("height")
	if h.Kind() != KindIntRange {
		t.Errorf("expected range kind, got %v", h.Kind())
	}
	f, _ := c.Field("format")
	if f.Kind() != KindList {
		t.Errorf("expected list kind, got %v", f.Kind())
	}
	if got := c.Keys(); len(got) != 4 || got[0] != "width" || got[3] != "framerate" {
		t.Errorf("unexpected key order %v", got)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	in := "audio/x-raw,rate=44100,channels=[1,8],layout=interleaved,format={S16LE,F32LE}"
	c := MustParse(in)
	if c.String() != in {
		t.Errorf("expected %q, got %q", in, c.String())
	}
	again := MustParse(c.String())
	if !Equal(c, again) {
		t.Errorf("round trip changed capability: %s vs %s", c, again)
	}
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		"",
		"video/x-raw,width",
		"video/x-raw,height=[1,2",
		"video/x-raw,height=[1]",
		"video/x-raw,format={a,b",
		"video/x-raw,width=(int)abc",
		"video/x-raw,width=(weird)1",
		"=foo",
	}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestParse_Any(t *testing.T) {
	c := MustParse("ANY")
	if !c.IsAny() {
		t.Fatal("expected ANY capability")
	}
	if c.Family() != "" {
		t.Errorf("ANY should have no family, got %q", c.Family())
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same tag no fields", "audio/x-raw", "audio/x-raw", true},
		{"different tags", "audio/x-raw", "video/x-raw", false},
		{"one side unconstrained", "audio/x-raw,rate=44100", "audio/x-raw", true},
		{"equal fixed", "audio/x-raw,rate=44100", "audio/x-raw,rate=44100", true},
		{"different fixed", "audio/x-raw,rate=44100", "audio/x-raw,rate=48000", false},
		{"fixed in range", "audio/x-raw,rate=44100", "audio/x-raw,rate=[8000,96000]", true},
		{"fixed outside range", "audio/x-raw,rate=4000", "audio/x-raw,rate=[8000,96000]", false},
		{"overlapping ranges", "video/x-raw,width=[100,200]", "video/x-raw,width=[150,400]", true},
		{"disjoint ranges", "video/x-raw,width=[100,200]", "video/x-raw,width=[201,400]", false},
		{"fixed in list", "video/x-raw,format=I420", "video/x-raw,format={RGB,I420}", true},
		{"fixed not in list", "video/x-raw,format=NV12", "video/x-raw,format={RGB,I420}", false},
		{"list and list", "video/x-raw,format={NV12,RGB}", "video/x-raw,format={RGB,I420}", true},
		{"int and float equal", "video/x-raw,framerate=30", "video/x-raw,framerate=30.0", true},
		{"disjoint keys", "audio/x-raw,rate=44100", "audio/x-raw,channels=2", true},
		{"any matches all", "ANY", "text/x-raw", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			if got := Compatible(a, b); got != tt.want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", a, b, got, tt.want)
			}
		})
	}
}

func TestCompatible_Symmetric(t *testing.T) {
	samples := []string{
		"ANY",
		"audio/x-raw",
		"audio/x-raw,rate=44100",
		"audio/x-raw,rate=[8000,48000]",
		"audio/x-raw,rate={22050,44100},channels=2",
		"audio/x-raw,channels=[1,2]",
		"video/x-raw",
		"video/x-raw,format={I420,RGB},width=[1,4096]",
		"video/x-raw,format=RGB,width=640",
		"video/x-raw,width=640.0",
		"text/x-raw,format=utf8",
	}
	for _, sa := range samples {
		for _, sb := range samples {
			a, b := MustParse(sa), MustParse(sb)
			if Compatible(a, b) != Compatible(b, a) {
				t.Errorf("asymmetric result for %s / %s", sa, sb)
			}
		}
	}
}

func TestCompatible_EmptyNeverMatches(t *testing.T) {
	var empty Capability
	if Compatible(empty, Any()) || Compatible(Any(), empty) {
		t.Error("empty capability must not be compatible with anything")
	}
}

func TestIntersect(t *testing.T) {
	a := MustParse("audio/x-raw,rate=[8000,96000],channels={1,2}")
	b := MustParse("audio/x-raw,rate=44100,layout=interleaved")

	got, ok := Intersect(a, b)
	if !ok {
		t.Fatal("expected intersection")
	}
	want := "audio/x-raw,rate=44100,channels={1,2},layout=interleaved"
	if got.String() != want {
		t.Errorf("expected %q, got %q", want, got.String())
	}

	ranges, ok := Intersect(MustParse("video/x-raw,width=[100,200]"), MustParse("video/x-raw,width=[150,400]"))
	if !ok || ranges.String() != "video/x-raw,width=[150,200]" {
		t.Errorf("unexpected range intersection %q", ranges)
	}

	if _, ok := Intersect(MustParse("audio/x-raw"), MustParse("video/x-raw")); ok {
		t.Error("expected no intersection across tags")
	}
}

func TestIntersect_Any(t *testing.T) {
	v := MustParse("video/x-raw,width=320")
	got, ok := Intersect(Any(), v)
	if !ok || !Equal(got, v) {
		t.Errorf("expected %s, got %s", v, got)
	}
}

func TestIsFixed(t *testing.T) {
	if !MustParse("video/x-raw,width=320,format=RGB").IsFixed() {
		t.Error("expected fixed capability")
	}
	if MustParse("video/x-raw,width=[1,2]").IsFixed() {
		t.Error("range capability is not fixed")
	}
	if Any().IsFixed() {
		t.Error("ANY is not fixed")
	}
}

func TestValueString_QuotesAmbiguousStrings(t *testing.T) {
	c := New("text/x-raw").With("format", String("a,b"))
	if c.String() != `text/x-raw,format="a,b"` {
		t.Errorf("unexpected rendering %q", c.String())
	}
	back := MustParse(c.String())
	f, _ := back.Field("format")
	if s, _ := f.AsString(); s != "a,b" {
		t.Errorf("expected quoted string to survive parsing, got %q", s)
	}
}
