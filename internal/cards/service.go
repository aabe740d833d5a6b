package cards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/entity"
	"github.com/joseph-ayodele/kyc-extractor/internal/imaging"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
	"github.com/joseph-ayodele/kyc-extractor/internal/normalize"
)

const (
	AadhaarQualityMessage = "Failed to extract Aadhaar details. Please check the image quality."
	PanQualityMessage     = "Failed to extract PAN details. Please check the image quality."

	// adaptive threshold applied to the Aadhaar back before reading the address
	backBlockSize = 11
	backOffset    = 2
)

// Service turns card images into AadhaarDetails / PanDetails.
type Service struct {
	ext    Extractor
	logger *slog.Logger
}

func NewService(ext Extractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ext: ext, logger: logger}
}

// ExtractAadhaar reads the front (required) and back (optional) of an Aadhaar card.
// Without a back image the guardian name and address are "Not Available", which the
// completion gate then rejects.
func (s *Service) ExtractAadhaar(ctx context.Context, front, back []byte) (*entity.AadhaarDetails, error) {
	rid := common.RequestIDFromContext(ctx)
	if len(front) == 0 {
		return nil, common.NewInputError("Front side of Aadhaar is required")
	}
	frontPNG, err := imaging.ToPNG(front)
	if err != nil {
		return nil, decodeError("front", err)
	}
	f, err := s.ext.ExtractFront(ctx, frontPNG)
	if err != nil {
		return nil, fmt.Errorf("extract aadhaar front: %w", err)
	}

	var b map[string]string
	if len(back) > 0 {
		backPNG, err := thresholdBack(back)
		if err != nil {
			return nil, err
		}
		if b, err = s.ext.ExtractBack(ctx, backPNG); err != nil {
			return nil, fmt.Errorf("extract aadhaar back: %w", err)
		}
	}

	details := &entity.AadhaarDetails{
		Name:          strings.TrimSpace(f[constants.FrontFullName]),
		Gender:        strings.TrimSpace(f[constants.FrontGender]),
		DateOfBirth:   normalize.FormatDate(strings.TrimSpace(f[constants.FrontDateOfBirth])),
		FathersName:   constants.NotAvailable,
		AadharNo:      strings.TrimSpace(f[constants.FrontAadhaarNo]),
		StreetAddress: constants.NotAvailable,
	}
	if len(b) > 0 {
		address := b[constants.BackAddress]
		details.FathersName = normalize.GuardianFromAddress(address)
		details.StreetAddress = normalize.CleanAddress(address)
	}

	if bad := normalize.IncompleteFields(details.Fields(), constants.AadhaarFields); len(bad) > 0 {
		s.logger.Warn("cards.aadhaar.incomplete", "request_id", rid, "fields", bad)
		metrics.ExtractionsTotal.WithLabelValues(string(constants.AadhaarCard), "incomplete").Inc()
		return nil, common.NewQualityError(AadhaarQualityMessage)
	}
	metrics.ExtractionsTotal.WithLabelValues(string(constants.AadhaarCard), "ok").Inc()
	s.logger.Info("cards.aadhaar.ok", "request_id", rid, "with_back", len(back) > 0)
	return details, nil
}

// ExtractPan reads a PAN card image.
func (s *Service) ExtractPan(ctx context.Context, image []byte) (*entity.PanDetails, error) {
	rid := common.RequestIDFromContext(ctx)
	if len(image) == 0 {
		return nil, common.NewInputError("PAN card image is required")
	}
	pngData, err := imaging.ToPNG(image)
	if err != nil {
		return nil, decodeError("pan", err)
	}
	p, err := s.ext.ExtractPan(ctx, pngData)
	if err != nil {
		return nil, fmt.Errorf("extract pan: %w", err)
	}

	details := &entity.PanDetails{
		Name:        strings.TrimSpace(p[constants.PanFullName]),
		FathersName: strings.TrimSpace(p[constants.PanParentName]),
		DateOfBirth: normalize.FormatDate(strings.TrimSpace(p[constants.PanDateOfBirth])),
		PanNo:       strings.TrimSpace(p[constants.PanNumber]),
	}
	if bad := normalize.IncompleteFields(details.Fields(), constants.PanFields); len(bad) > 0 {
		s.logger.Warn("cards.pan.incomplete", "request_id", rid, "fields", bad)
		metrics.ExtractionsTotal.WithLabelValues(string(constants.PanCard), "incomplete").Inc()
		return nil, common.NewQualityError(PanQualityMessage)
	}
	metrics.ExtractionsTotal.WithLabelValues(string(constants.PanCard), "ok").Inc()
	s.logger.Info("cards.pan.ok", "request_id", rid)
	return details, nil
}

func thresholdBack(data []byte) ([]byte, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, decodeError("back", err)
	}
	return imaging.EncodePNG(imaging.AdaptiveThreshold(img, backBlockSize, backOffset))
}

func decodeError(side string, err error) error {
	return common.NewAppError(common.CodeInput, "could not decode "+side+" image", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
}
