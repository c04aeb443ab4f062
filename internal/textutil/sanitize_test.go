package textutil

import "testing"

func TestUploadName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp3", "clip.mp3"},
		{`C:\fakepath\clip.mp3`, "clip.mp3"},
		{"/home/user/music/track 01.flac", "track 01.flac"},
		{"what?.wav", "what.wav"},
		{"line\nbreak.ogg", "linebreak.ogg"},
		{"  ", ""},
		{"/", ""},
	}
	for _, tc := range tests {
		if got := UploadName(tc.in); got != tc.want {
			t.Errorf("UploadName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(`Band: "Live" <2024>`); got != "Band- Live 2024" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
}
