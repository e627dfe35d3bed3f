package domain

import (
	"path/filepath"
	"strings"
)

// JobStatus is the remote lifecycle state of a generation job. The set is
// owned by the remote API; unknown values are carried through untouched.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether the job will not change state anymore.
func (s JobStatus) IsTerminal() bool {
	switch JobStatus(strings.ToUpper(string(s))) {
	case JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// MediaType tags an entry of a job input sequence.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypeText  MediaType = "text"
)

// VoiceProvider points a text entry at a voice-synthesis backend.
type VoiceProvider struct {
	Name    string `json:"name"`
	VoiceID string `json:"voiceId"`
}

// MediaReference is one entry of a job input sequence: either a typed URL
// (video, audio) or a text script with its voice provider.
type MediaReference struct {
	Type     MediaType      `json:"type,omitempty"`
	URL      string         `json:"url,omitempty"`
	Text     string         `json:"text,omitempty"`
	Provider *VoiceProvider `json:"provider,omitempty"`
}

// Options are the generation settings forwarded verbatim to the remote API.
type Options struct {
	SyncMode string `json:"sync_mode"`
	Voice    string `json:"voice"`
	Style    string `json:"style"`
	Language string `json:"language"`
}

// JobOutput is present once a job completed successfully.
type JobOutput struct {
	Video string `json:"video"`
}

// GenerationJob mirrors a job record returned by the listing endpoint.
// CreatedAt stays the raw ISO-8601 string; formatting is a display concern.
type GenerationJob struct {
	ID        string           `json:"id"`
	Status    JobStatus        `json:"status"`
	Model     string           `json:"model"`
	Input     []MediaReference `json:"input,omitempty"`
	Options   Options          `json:"options"`
	CreatedAt string           `json:"createdAt"`
	Output    *JobOutput       `json:"output,omitempty"`
}

// OutputVideo returns the result video URL, or "" while the job is not ready.
func (j GenerationJob) OutputVideo() string {
	if j.Output == nil {
		return ""
	}
	return strings.TrimSpace(j.Output.Video)
}

// JobPage is one page of the remote listing.
type JobPage struct {
	Items []GenerationJob `json:"items"`
	Total int             `json:"total"`
}

// SecondaryInput is the audio-or-text half of a submission. It is either an
// AudioURL or a TextWithVoice.
type SecondaryInput interface {
	Reference() MediaReference
}

// AudioURL is a publicly fetchable audio track.
type AudioURL string

func (a AudioURL) Reference() MediaReference {
	return MediaReference{Type: MediaTypeAudio, URL: string(a)}
}

// TextWithVoice is a script the remote API synthesizes with the given voice.
type TextWithVoice struct {
	Text     string
	Provider string
	VoiceID  string
}

func (t TextWithVoice) Reference() MediaReference {
	return MediaReference{
		Type:     MediaTypeText,
		Text:     t.Text,
		Provider: &VoiceProvider{Name: t.Provider, VoiceID: t.VoiceID},
	}
}

// MediaFile is a file received from the dashboard form, held in memory until
// it has been uploaded.
type MediaFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether the file is missing or has no payload.
func (f *MediaFile) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// Ext returns the lower-cased file extension including the dot.
func (f *MediaFile) Ext() string {
	if f == nil {
		return ""
	}
	return strings.ToLower(filepath.Ext(f.Name))
}
