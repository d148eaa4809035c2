// Package video decides which stored video representation is authoritative
// for a memorial and talks to the hosted transcoding platform.
package video

// Kind tags the variant of a resolved video source
type Kind string

const (
	// KindMux is a finalized, platform-transcoded asset addressed by playback id
	KindMux Kind = "mux"
	// KindTemp is a directly playable URL from before finalization
	KindTemp Kind = "temp"
	// KindNone means no video is available
	KindNone Kind = "none"
)

// Source is a tagged video reference: exactly one variant applies.
// PlaybackID is set only for KindMux, URL only for KindTemp.
type Source struct {
	Kind       Kind   `json:"kind"`
	PlaybackID string `json:"playback_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Resolve picks the authoritative video source for display. A finalized
// transcoded asset always wins over a temporary raw upload because it is
// guaranteed playable across devices; the fallback playback id lets an
// already-published memorial show its video even when the draft's own
// record was never finalized.
//
// Precedence: draft playback id > fallback playback id > temp URL > none.
func Resolve(playbackID, tempURL, fallbackPlaybackID string) Source {
	if playbackID != "" {
		return Source{Kind: KindMux, PlaybackID: playbackID}
	}
	if fallbackPlaybackID != "" {
		return Source{Kind: KindMux, PlaybackID: fallbackPlaybackID}
	}
	if tempURL != "" {
		return Source{Kind: KindTemp, URL: tempURL}
	}
	return Source{Kind: KindNone}
}
