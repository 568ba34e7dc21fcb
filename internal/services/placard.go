package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"

	"github.com/fernsky/delivery-admin-sub005/internal/clients/gcp"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
)

const placardSize = 512

// Default tile palette for entities without a photo; picked
// deterministically from the entity name so re-renders stay stable.
var placardPalette = []color.NRGBA{
	{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF},
	{R: 0x2C, G: 0xA0, B: 0x2C, A: 0xFF},
	{R: 0xD6, G: 0x27, B: 0x28, A: 0xFF},
	{R: 0x94, G: 0x67, B: 0xBD, A: 0xFF},
	{R: 0x8C, G: 0x56, B: 0x4B, A: 0xFF},
	{R: 0xE3, G: 0x77, B: 0xC2, A: 0xFF},
	{R: 0x17, G: 0xBE, B: 0xCF, A: 0xFF},
}

// PlacardService renders the fallback cover image shown for an entity
// that has no uploaded media: a colored tile with the entity's
// initial.
type PlacardService interface {
	Generate(name string) (bytes.Buffer, error)
	// EnsureForEntity uploads a placard and returns its public URL when
	// the entity has no media; with media present it returns "".
	EnsureForEntity(ctx context.Context, entityID uuid.UUID, entityType, name string) (string, error)
}

type placardService struct {
	log       *logger.Logger
	mediaRepo repos.MediaRepo
	bucket    gcp.BucketService
	fontFace  font.Face
}

func NewPlacardService(baseLog *logger.Logger, mediaRepo repos.MediaRepo, bucket gcp.BucketService) (PlacardService, error) {
	serviceLog := baseLog.With("service", "PlacardService")

	fontPath := strings.TrimSpace(os.Getenv("PLACARD_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("env var PLACARD_FONT is empty")
	}
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load placard font: %w", err)
	}

	return &placardService{
		log:       serviceLog,
		mediaRepo: mediaRepo,
		bucket:    bucket,
		fontFace:  face,
	}, nil
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: points}), nil
}

func placardColor(name string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return placardPalette[int(h.Sum32())%len(placardPalette)]
}

func placardInitial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func (ps *placardService) Generate(name string) (bytes.Buffer, error) {
	dc := gg.NewContext(placardSize, placardSize)
	dc.SetColor(placardColor(name))
	dc.Clear()

	initial := placardInitial(name)
	dc.SetFontFace(ps.fontFace)
	tw, th := dc.MeasureString(initial)
	cx, cy := float64(placardSize)/2, float64(placardSize)/2

	dc.SetColor(color.White)
	dc.DrawString(initial, cx-(tw/2), cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (ps *placardService) EnsureForEntity(ctx context.Context, entityID uuid.UUID, entityType, name string) (string, error) {
	if err := requireElevated(ctx); err != nil {
		return "", err
	}
	count, err := ps.mediaRepo.CountByEntity(ctx, nil, entityID, entityType)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	buf, err := ps.Generate(name)
	if err != nil {
		return "", err
	}

	// Versioned key so the CDN never serves a stale tile after the
	// palette or font changes.
	key := fmt.Sprintf("placard/%s/%s/%d.png", entityType, entityID, time.Now().UnixNano())
	if err := ps.bucket.UploadFile(ctx, gcp.BucketCategoryPlacard, key, bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload placard: %w", err)
	}
	return ps.bucket.GetPublicURL(gcp.BucketCategoryPlacard, key), nil
}
