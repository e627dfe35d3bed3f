package lipsync

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
	"github.com/linhaiwebs/sync/internal/providers/syncso"
	"github.com/linhaiwebs/sync/internal/storage"
)

// JobAPI is the remote job contract the workflow drives.
type JobAPI interface {
	Models() []string
	AllowsModel(model string) bool
	Create(ctx context.Context, req syncso.CreateRequest) (string, error)
	List(ctx context.Context, q syncso.ListQuery) (*domain.JobPage, error)
	Delete(ctx context.Context, id string) error
}

var _ JobAPI = (*syncso.Client)(nil)

// Accepted extensions and their fallback media types: mp4/mov for video,
// mp3/wav for audio, txt for scripts.
var (
	videoTypes = map[string]string{
		".mp4": "video/mp4",
		".mov": "video/quicktime",
	}
	secondaryTypes = map[string]string{
		".mp3": "audio/mpeg",
		".wav": "audio/wav",
		".txt": "text/plain",
	}
)

// SubmitRequest is one dashboard submission before any upload happened.
type SubmitRequest struct {
	Video      *domain.MediaFile
	Secondary  *domain.MediaFile
	Model      string
	Options    domain.Options
	WebhookURL string
}

// Service wires uploads to job submission, listing and deletion. It keeps no
// state between calls.
type Service struct {
	api           JobAPI
	uploader      storage.Uploader
	voiceProvider string
	logger        *infra.Logger
}

func NewService(api JobAPI, uploader storage.Uploader, voiceProvider string, logger *infra.Logger) *Service {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	voiceProvider = strings.TrimSpace(voiceProvider)
	if voiceProvider == "" {
		voiceProvider = "elevenlabs"
	}
	return &Service{api: api, uploader: uploader, voiceProvider: voiceProvider, logger: logger}
}

// Models returns the model allow-list.
func (s *Service) Models() []string { return s.api.Models() }

// UploadMode reports which upload strategy is active.
func (s *Service) UploadMode() string { return s.uploader.Mode() }

// Submit validates the request, uploads the files and creates the job. Both
// files must be present; nothing is uploaded or sent otherwise.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.Video.Empty() || req.Secondary.Empty() {
		return "", domain.Validationf("both a video and an audio or text file are required")
	}
	if err := normalizeType(req.Video, videoTypes, "video"); err != nil {
		return "", err
	}
	if err := normalizeType(req.Secondary, secondaryTypes, "audio/text"); err != nil {
		return "", err
	}
	model := strings.TrimSpace(req.Model)
	if !s.api.AllowsModel(model) {
		return "", domain.Validationf("model %q is not allowed", req.Model)
	}

	// The text branch needs no upload, so decode it before touching the
	// video to fail fast on bad scripts.
	var secondary domain.SecondaryInput
	isAudio := strings.HasPrefix(strings.ToLower(req.Secondary.ContentType), "audio")
	if !isAudio {
		text, err := decodeScript(req.Secondary.Data)
		if err != nil {
			return "", err
		}
		secondary = domain.TextWithVoice{Text: text, Provider: s.voiceProvider, VoiceID: req.Options.Voice}
	}

	videoURL, err := s.uploader.Upload(ctx, req.Video)
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}
	if isAudio {
		audioURL, err := s.uploader.Upload(ctx, req.Secondary)
		if err != nil {
			return "", fmt.Errorf("upload audio: %w", err)
		}
		secondary = domain.AudioURL(audioURL)
	}

	id, err := s.api.Create(ctx, syncso.CreateRequest{
		Model:      model,
		VideoURL:   videoURL,
		Secondary:  secondary,
		Options:    req.Options,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("model", model).Str("upload_mode", s.uploader.Mode()).Msg("lipsync: submission failed")
		return "", err
	}
	return id, nil
}

// List returns one page of jobs. A failure is always an error, never an
// empty page.
func (s *Service) List(ctx context.Context, page int, search string) (*domain.JobPage, error) {
	return s.api.List(ctx, syncso.ListQuery{Page: page, Search: search})
}

// Delete removes a job remotely. Callers refresh their listing themselves.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, id)
}

// normalizeType checks the extension against allowed and fills in a missing
// or generic declared media type from it.
func normalizeType(file *domain.MediaFile, allowed map[string]string, label string) error {
	ext := file.Ext()
	fallback, ok := allowed[ext]
	if !ok {
		return domain.Validationf("unsupported %s file type %q", label, ext)
	}
	ct := strings.TrimSpace(file.ContentType)
	if ct == "" || strings.EqualFold(ct, "application/octet-stream") {
		file.ContentType = fallback
	}
	return nil
}

func decodeScript(data []byte) (string, error) {
	data = trimBOM(data)
	if !utf8.Valid(data) {
		return "", domain.Validationf("text file is not valid UTF-8")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", domain.Validationf("text file is empty")
	}
	return text, nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
