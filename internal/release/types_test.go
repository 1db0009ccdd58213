package release

import (
	"testing"
)

func TestParseReleasesMalformed(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantLen  int
		wantTags []string
	}{
		{name: "not_json", payload: "<html>rate limited</html>", wantLen: 0},
		{name: "object_top_level", payload: `{"message":"Not Found"}`, wantLen: 0},
		{name: "null", payload: `null`, wantLen: 0},
		{name: "string_top_level", payload: `"v1.0.0"`, wantLen: 0},
		{name: "empty_array", payload: `[]`, wantLen: 0},
		{
			name:     "mixed_elements",
			payload:  `[{"tag_name":"v2.0.0"}, 42, null, "x", {"tag_name":7}]`,
			wantLen:  5,
			wantTags: []string{"v2.0.0", "", "", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReleases([]byte(tt.payload))
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			for i, tag := range tt.wantTags {
				if got[i].TagName != tag {
					t.Errorf("release %d tag = %q, want %q", i, got[i].TagName, tag)
				}
				if got[i].Assets == nil {
					t.Errorf("release %d has nil assets", i)
				}
			}
		})
	}
}

func TestParseReleaseMalformedFields(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		want       Release
		wantAssets []Asset
	}{
		{
			name:    "complete",
			payload: `{"tag_name":"v0.20.0","html_url":"https://example.com/r","assets":[{"name":"stylua-linux.zip","browser_download_url":"https://example.com/a"}]}`,
			want:    Release{TagName: "v0.20.0", HTMLURL: "https://example.com/r"},
			wantAssets: []Asset{
				{Name: "stylua-linux.zip", DownloadURL: "https://example.com/a"},
			},
		},
		{
			name:       "wrong_types",
			payload:    `{"tag_name":1,"html_url":["x"],"assets":"nope"}`,
			want:       Release{},
			wantAssets: []Asset{},
		},
		{
			name:       "asset_wrong_types",
			payload:    `{"tag_name":"v1","assets":[{"name":3,"browser_download_url":null}, "junk"]}`,
			want:       Release{TagName: "v1"},
			wantAssets: []Asset{{}, {}},
		},
		{
			name:       "garbage",
			payload:    `{{{`,
			want:       Release{},
			wantAssets: []Asset{},
		},
		{
			name:       "array_instead_of_object",
			payload:    `[{"tag_name":"v1"}]`,
			want:       Release{},
			wantAssets: []Asset{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRelease([]byte(tt.payload))
			if got.TagName != tt.want.TagName || got.HTMLURL != tt.want.HTMLURL {
				t.Errorf("got tag=%q url=%q, want tag=%q url=%q", got.TagName, got.HTMLURL, tt.want.TagName, tt.want.HTMLURL)
			}
			if got.Assets == nil {
				t.Fatal("assets must never be nil")
			}
			if len(got.Assets) != len(tt.wantAssets) {
				t.Fatalf("assets = %v, want %v", got.Assets, tt.wantAssets)
			}
			for i := range tt.wantAssets {
				if got.Assets[i] != tt.wantAssets[i] {
					t.Errorf("asset %d = %+v, want %+v", i, got.Assets[i], tt.wantAssets[i])
				}
			}
		})
	}
}

func FuzzParseReleases(f *testing.F) {
	f.Add([]byte(`[{"tag_name":"v1.0.0","assets":[{"name":"a"}]}]`))
	f.Add([]byte(`{"assets":[1,2,3]}`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, r := range ParseReleases(data) {
			if r.Assets == nil {
				t.Fatal("nil assets")
			}
		}
		if ParseRelease(data).Assets == nil {
			t.Fatal("nil assets")
		}
	})
}

func TestNormalizeTag(t *testing.T) {
	tests := map[string]string{
		"1.2.3":   "v1.2.3",
		"v1.2.3":  "v1.2.3",
		" 0.20 ":  "v0.20",
		"v0.20.0": "v0.20.0",
	}
	for in, want := range tests {
		if got := NormalizeTag(in); got != want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}

	if got := (Release{TagName: "v2.0.0"}).Version(); got != "2.0.0" {
		t.Errorf("Version() = %q, want 2.0.0", got)
	}
}
