package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bloombuddy/internal/care"
	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/perenual"
	"github.com/dmitrijs2005/bloombuddy/internal/plantid"
)

// Identifier recognises a plant on a photo.
type Identifier interface {
	Identify(ctx context.Context, imageBase64 string) (*plantid.Identification, error)
}

// CareLookup finds care facts for the first of names that matches a
// species.
type CareLookup interface {
	LookupFirst(ctx context.Context, names []string) (*perenual.Species, error)
}

// IdentifyResult is what the identify screen shows.
type IdentifyResult struct {
	Top           *plantid.Suggestion  `json:"top,omitempty"`
	Suggestions   []plantid.Suggestion `json:"suggestions"`
	Care          *care.Facts          `json:"care,omitempty"`
	Summary       care.Summary         `json:"summary"`
	SearchedNames []string             `json:"searchedNames"`
}

type IdentifyService struct {
	identifier Identifier
	care       CareLookup
	logger     logging.Logger
}

// NewIdentifyService wires the service. A nil identifier disables
// identification; a nil care lookup leaves every result without care facts.
func NewIdentifyService(id Identifier, cl CareLookup, logger logging.Logger) *IdentifyService {
	return &IdentifyService{identifier: id, care: cl, logger: logger.With("module", "identify")}
}

var errIdentifyDisabled = fmt.Errorf("%w: plant identification is not configured", common.ErrorUpstream)

// Identify runs the photo through the identifier and looks up care facts
// for the top suggestion. A failed care lookup is logged and leaves Care
// nil; it never fails the identification.
func (s *IdentifyService) Identify(ctx context.Context, image string) (*IdentifyResult, error) {
	if s.identifier == nil {
		return nil, errIdentifyDisabled
	}

	payload, err := normalizeBase64Image(image)
	if err != nil {
		return nil, err
	}

	ident, err := s.identifier.Identify(ctx, payload)
	if err != nil {
		return nil, err
	}

	res := &IdentifyResult{Suggestions: ident.Suggestions, Top: ident.Top()}
	if res.Suggestions == nil {
		res.Suggestions = []plantid.Suggestion{}
	}
	if res.Top == nil {
		res.SearchedNames = []string{}
		res.Summary = care.Summarize(nil)
		return res, nil
	}

	res.SearchedNames = perenual.SearchNames(res.Top.Name, res.Top.CommonNames)
	if s.care != nil {
		sp, err := s.care.LookupFirst(ctx, res.SearchedNames)
		if err != nil {
			s.logger.Warn(ctx, "care lookup failed", "plant", res.Top.Name, "error", err)
		} else {
			res.Care = sp.Facts()
		}
	}
	res.Summary = care.Summarize(res.Care)
	return res, nil
}

// IdentifyBytes is Identify for a raw image.
func (s *IdentifyService) IdentifyBytes(ctx context.Context, image []byte) (*IdentifyResult, error) {
	return s.Identify(ctx, base64.StdEncoding.EncodeToString(image))
}

// normalizeBase64Image strips a data: URL prefix and checks that the rest
// decodes.
func normalizeBase64Image(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, after, ok := strings.Cut(s, ",")
		if !ok {
			return "", fmt.Errorf("%w: malformed data URL", common.ErrorValidation)
		}
		s = after
	}
	if s == "" {
		return "", fmt.Errorf("%w: empty image", common.ErrorValidation)
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: image is not valid base64", common.ErrorValidation)
	}
	return s, nil
}
