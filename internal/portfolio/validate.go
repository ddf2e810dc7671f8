package portfolio

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Zachkp/folio/internal/apperr"
)

// Upload limits for the two image slots, in decoded bytes.
const (
	MaxHeroImageBytes       = 5 * 1024 * 1024
	MaxBackgroundImageBytes = 10 * 1024 * 1024
)

// ImageSlot identifies one of the two image fields.
type ImageSlot string

const (
	SlotHero       ImageSlot = "hero"
	SlotBackground ImageSlot = "background"
)

// ParseImageSlot validates a slot name.
func ParseImageSlot(name string) (ImageSlot, bool) {
	switch ImageSlot(name) {
	case SlotHero, SlotBackground:
		return ImageSlot(name), true
	}
	return "", false
}

// MaxBytes is the upload size limit for the slot.
func (s ImageSlot) MaxBytes() int {
	if s == SlotBackground {
		return MaxBackgroundImageBytes
	}
	return MaxHeroImageBytes
}

// Field is the images-section field the slot writes.
func (s ImageSlot) Field() string {
	if s == SlotBackground {
		return "homeBackgroundImage"
	}
	return "heroImage"
}

// Patch builds the images partial that sets the slot to dataURI, or clears it
// when dataURI is nil.
func (s ImageSlot) Patch(dataURI *string) Partial {
	raw, _ := json.Marshal(map[string]*string{s.Field(): dataURI})
	return Partial{SectionImages: raw}
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its MIME type and payload.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, apperr.New(apperr.CodeValidation, "image must be a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, apperr.New(apperr.CodeValidation, "data URI has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, apperr.New(apperr.CodeValidation, "data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.CodeValidation, "data URI payload is not valid base64", err)
	}
	return mime, data, nil
}

// IsImageMIME reports whether mime names an image type.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

// Validate checks the images invariants: opacity is an integer percentage and
// each image is null or an image data URI.
func (im Images) Validate() error {
	n, err := strconv.Atoi(im.BackgroundOpacity)
	if err != nil || n < 0 || n > 100 || strconv.Itoa(n) != im.BackgroundOpacity {
		return apperr.Newf(apperr.CodeValidation, "backgroundOpacity must be an integer between 0 and 100, got %q", im.BackgroundOpacity)
	}
	for field, v := range map[string]*string{"heroImage": im.HeroImage, "homeBackgroundImage": im.HomeBackgroundImage} {
		if v == nil {
			continue
		}
		mime, _, err := ParseDataURI(*v)
		if err != nil {
			return apperr.Wrap(apperr.CodeValidation, field+" is not a valid data URI", err)
		}
		if !IsImageMIME(mime) {
			return apperr.Newf(apperr.CodeValidation, "%s has non-image MIME type %q", field, mime)
		}
	}
	return nil
}

// Validate checks the sections carried by p in isolation: list ids must be
// unique and image fields must hold well-formed values. It does not need the
// stored document.
func (p Partial) Validate() error {
	for s, raw := range p {
		if _, ok := ParseSection(string(s)); !ok {
			return apperr.Newf(apperr.CodeValidation, "unknown section %q", s)
		}
		if isNull(raw) {
			continue
		}
		switch s {
		case SectionPortfolio:
			var list []Project
			if err := json.Unmarshal(raw, &list); err != nil {
				return apperr.Wrap(apperr.CodeValidation, "invalid portfolio payload", err)
			}
			if err := uniqueIDs(s, list, func(p Project) int64 { return p.ID }); err != nil {
				return err
			}
		case SectionServices:
			var list []Service
			if err := json.Unmarshal(raw, &list); err != nil {
				return apperr.Wrap(apperr.CodeValidation, "invalid services payload", err)
			}
			if err := uniqueIDs(s, list, func(s Service) int64 { return s.ID }); err != nil {
				return err
			}
		case SectionImages:
			if err := validateImagesPatch(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func uniqueIDs[T any](s Section, list []T, id func(T) int64) error {
	seen := make(map[int64]struct{}, len(list))
	for _, item := range list {
		k := id(item)
		if _, dup := seen[k]; dup {
			return apperr.Newf(apperr.CodeValidation, "duplicate id %d in %s", k, s)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// validateImagesPatch overlays the patch onto a valid baseline so only the
// fields the patch actually carries are judged.
func validateImagesPatch(raw json.RawMessage) error {
	probe := Images{BackgroundOpacity: "0"}
	if err := overlay(&probe, raw); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "invalid images payload", err)
	}
	return probe.Validate()
}
