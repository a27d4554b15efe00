package events

import (
	"testing"

	"github.com/google/uuid"
)

const sampleWorld = "11111111-1111-1111-1111-111111111111"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Event
		wantOK bool
	}{
		{
			name:   "world join",
			line:   "2024.01.02 10:11:12 Log        -  [Behaviour] Joining wrld_" + sampleWorld + ":12345~private(usr_x)",
			want:   Event{Kind: WorldJoined, WorldID: sampleWorld},
			wantOK: true,
		},
		{
			name:   "world join with malformed id",
			line:   "[Behaviour] Joining wrld_not-a-valid-id",
			want:   Event{Kind: WorldJoined, WorldID: ""},
			wantOK: true,
		},
		{
			name:   "screenshot",
			line:   "2024.01.02 10:11:13 Log        -  [VRC Camera] Took screenshot to: C:\\Users\\me\\Pictures\\VRChat\\VRChat_2024-01-02_10-11-13.png",
			want:   Event{Kind: ScreenshotTaken, Path: "C:\\Users\\me\\Pictures\\VRChat\\VRChat_2024-01-02_10-11-13.png"},
			wantOK: true,
		},
		{
			name:   "screenshot path keeps surrounding spaces",
			line:   "Took screenshot to:  /tmp/odd name.png ",
			want:   Event{Kind: ScreenshotTaken, Path: " /tmp/odd name.png "},
			wantOK: true,
		},
		{
			name:   "screenshot with empty remainder",
			line:   "Took screenshot to: ",
			want:   Event{Kind: ScreenshotTaken, Path: ""},
			wantOK: true,
		},
		{
			name: "unrelated line",
			line: "2024.01.02 10:11:14 Log        -  [Behaviour] OnPlayerJoined someone",
		},
		{
			name: "marker without prefix match",
			line: "Joining world without id",
		},
		{
			name: "empty line",
			line: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("Classify(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestClassify_ExtractsEveryWellFormedID(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := uuid.NewString()
		ev, ok := Classify("[Behaviour] Joining wrld_" + id + ":0~region(eu)")
		if !ok || ev.Kind != WorldJoined {
			t.Fatalf("Classify did not detect join for %s", id)
		}
		if ev.WorldID != id {
			t.Fatalf("WorldID = %q, want %q", ev.WorldID, id)
		}
	}
}

func TestClassify_PathIsExactRemainder(t *testing.T) {
	paths := []string{
		"/tmp/a.png",
		"C:\\Pictures\\VRChat\\2024-01\\VRChat_1920x1080.png",
		"/home/user/Pictures/with spaces/shot.v2.png",
		"relative/ünïcode.jpeg",
	}
	for _, p := range paths {
		ev, ok := Classify("prefix noise Took screenshot to: " + p)
		if !ok || ev.Kind != ScreenshotTaken {
			t.Fatalf("Classify did not detect screenshot for %q", p)
		}
		if ev.Path != p {
			t.Fatalf("Path = %q, want %q", ev.Path, p)
		}
	}
}

func TestKind_String(t *testing.T) {
	if WorldJoined.String() != "world_joined" || ScreenshotTaken.String() != "screenshot_taken" || None.String() != "none" {
		t.Fatal("unexpected Kind names")
	}
}

func TestWorldURL(t *testing.T) {
	if got := WorldURL(""); got != "" {
		t.Fatalf("WorldURL(\"\") = %q, want empty", got)
	}
	want := "https://vrchat.com/home/world/wrld_" + sampleWorld
	if got := WorldURL(sampleWorld); got != want {
		t.Fatalf("WorldURL = %q, want %q", got, want)
	}
}
