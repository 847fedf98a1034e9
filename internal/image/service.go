package image

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// Validation errors, distinct from analysis failures so the caller can show
// a precise one-line message.
var (
	ErrTooLarge          = fmt.Errorf("image exceeds the maximum allowed size")
	ErrUnsupportedFormat = fmt.Errorf("unsupported image format")
)

const defaultMaxBytes = 20 * 1024 * 1024

var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// VisionClient is the vision-model call: a prompt plus base64 images in,
// raw text out. *llm.OllamaClient satisfies it.
type VisionClient interface {
	ChatVision(ctx context.Context, prompt string, imagesB64 []string) (string, error)
}

// Service runs the analyze-and-cache pipeline.
type Service struct {
	vision   VisionClient
	cache    Cache
	maxBytes int64
}

// NewService creates an image analysis service. maxBytes <= 0 selects the
// 20 MB default.
func NewService(vision VisionClient, cache Cache, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Service{vision: vision, cache: cache, maxBytes: maxBytes}
}

// ===== PIPELINE =====

// Analyze reads, validates, and analyzes one image file. Returns the loaded
// image and whether the analysis came from cache.
func (s *Service) Analyze(ctx context.Context, path string) (LoadedImage, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LoadedImage{}, false, fmt.Errorf("failed to read image: %w", err)
	}

	filename := filepath.Base(path)
	if err := s.validate(path, raw); err != nil {
		return LoadedImage{}, false, err
	}

	hash := fmt.Sprintf("%x", md5.Sum(raw))

	if cached, ok := s.cache.GetAnalysis(ctx, hash); ok {
		logging.Image("Cache hit for %s (%s)", filename, hash[:8])
		return LoadedImage{Filename: filename, Hash: hash, Analysis: cached}, true, nil
	}

	if s.vision == nil {
		return LoadedImage{}, false, fmt.Errorf("%w: no vision model configured", types.ErrImageAnalysis)
	}

	timer := logging.StartTimer(logging.CategoryImage, "vision analysis "+filename)
	result, err := s.callVision(ctx, raw)
	timer.Stop()
	if err != nil {
		return LoadedImage{}, false, err
	}

	s.cache.SetAnalysis(ctx, hash, filename, result)
	return LoadedImage{Filename: filename, Hash: hash, Analysis: result}, false, nil
}

func (s *Service) validate(path string, raw []byte) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return fmt.Errorf("%w: %s (accepted: .gif, .jpeg, .jpg, .png, .webp)", ErrUnsupportedFormat, ext)
	}
	if int64(len(raw)) > s.maxBytes {
		return fmt.Errorf("%w: image is %d MB, maximum is %d MB",
			ErrTooLarge, int64(len(raw))/(1024*1024), s.maxBytes/(1024*1024))
	}
	return nil
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]+\}`)

// callVision sends the image to the vision model and parses the JSON reply.
// Models sometimes wrap the object in prose or code fences; a bracketed
// extraction pass recovers those.
func (s *Service) callVision(ctx context.Context, raw []byte) (AnalysisResult, error) {
	b64 := base64.StdEncoding.EncodeToString(raw)

	reply, err := s.vision.ChatVision(ctx, analysisPrompt, []string{b64})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: vision call failed: %v", types.ErrImageAnalysis, err)
	}
	reply = strings.TrimSpace(reply)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(reply), &result); err == nil && result.VividDescription != "" {
		return result, nil
	}

	if m := jsonObjectRe.FindString(reply); m != "" {
		if err := json.Unmarshal([]byte(m), &result); err == nil && result.VividDescription != "" {
			return result, nil
		}
	}

	return AnalysisResult{}, fmt.Errorf("%w: response could not be parsed as analysis JSON", types.ErrImageAnalysis)
}

// ===== SESSION INDEX =====

// Loaded returns all analyzed images in the session index, in upload order.
// Index entries whose analysis has expired are skipped.
func (s *Service) Loaded(ctx context.Context) []LoadedImage {
	var images []LoadedImage
	for _, hash := range s.cache.Index(ctx) {
		analysis, ok := s.cache.GetAnalysis(ctx, hash)
		if !ok {
			continue
		}
		filename := s.cache.Filename(ctx, hash)
		if filename == "" {
			filename = hash
		}
		images = append(images, LoadedImage{Filename: filename, Hash: hash, Analysis: analysis})
	}
	return images
}

// Briefs formats every loaded image for prompt injection.
func (s *Service) Briefs(ctx context.Context) string {
	return FormatForPersonas(s.Loaded(ctx))
}

// Clear drops the session image index.
func (s *Service) Clear(ctx context.Context) {
	s.cache.ClearIndex(ctx)
	logging.Image("Image index cleared")
}
