// Package release talks to the remote release API of the managed tool.
//
// Responses are decoded defensively: a missing or wrong-typed field becomes
// an empty string or empty list instead of an error, so a Release value is
// always well-formed even when the upstream payload is not.
package release

import (
	"encoding/json"
	"strings"
)

// LatestVersion is the version alias that selects the newest release.
const LatestVersion = "latest"

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Release is a tagged publication of the tool. Its identity is TagName.
type Release struct {
	TagName string
	HTMLURL string
	Assets  []Asset
}

// Version returns the tag without its leading "v".
func (r Release) Version() string {
	return StripPrefix(r.TagName)
}

// StripPrefix removes the leading version prefix letter, if any.
func StripPrefix(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}

// NormalizeTag makes sure version carries the "v" prefix used by release tags.
func NormalizeTag(version string) string {
	return "v" + StripPrefix(version)
}

// ParseRelease decodes a single release object. Invalid JSON yields an
// empty Release.
func ParseRelease(data []byte) Release {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return Release{Assets: []Asset{}}
	}
	return DecodeRelease(v)
}

// ParseReleases decodes a release listing. Anything other than a JSON array
// yields an empty list.
func ParseReleases(data []byte) []Release {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return []Release{}
	}
	return DecodeReleases(v)
}

// DecodeReleases maps every element of an untyped list to a Release.
func DecodeReleases(v interface{}) []Release {
	items, ok := v.([]interface{})
	if !ok {
		return []Release{}
	}
	releases := make([]Release, 0, len(items))
	for _, item := range items {
		releases = append(releases, DecodeRelease(item))
	}
	return releases
}

// DecodeRelease maps an untyped release object to a Release.
func DecodeRelease(v interface{}) Release {
	obj, _ := v.(map[string]interface{})
	r := Release{
		TagName: stringField(obj, "tag_name"),
		HTMLURL: stringField(obj, "html_url"),
		Assets:  []Asset{},
	}

	assets, _ := obj["assets"].([]interface{})
	for _, a := range assets {
		asset, _ := a.(map[string]interface{})
		r.Assets = append(r.Assets, Asset{
			Name:        stringField(asset, "name"),
			DownloadURL: stringField(asset, "browser_download_url"),
		})
	}
	return r
}

// stringField returns obj[key] when it is a string, "" otherwise.
// Lookups on a nil map are safe.
func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}
