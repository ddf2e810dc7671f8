package portfolio

import (
	"bytes"
	"encoding/json"

	"github.com/Zachkp/folio/internal/apperr"
)

// Apply merges p into a copy of d and returns the copy. List sections present
// in p replace the stored list; singleton sections overlay field by field so
// omitted fields survive. A null section value is ignored. d is never
// modified, and on error the returned document is d unchanged.
func (d Document) Apply(p Partial) (Document, error) {
	out := d.Clone()
	for _, s := range p.sortedKeys() {
		raw := p[s]
		if isNull(raw) {
			continue
		}
		var err error
		switch s {
		case SectionPortfolio:
			var list []Project
			err = json.Unmarshal(raw, &list)
			out.Portfolio = list
		case SectionServices:
			var list []Service
			err = json.Unmarshal(raw, &list)
			out.Services = list
		case SectionAbout:
			err = overlay(&out.About, raw)
		case SectionContact:
			err = overlay(&out.Contact, raw)
		case SectionSettings:
			err = overlay(&out.Settings, raw)
		case SectionImages:
			err = overlay(&out.Images, raw)
		default:
			return d, apperr.Newf(apperr.CodeValidation, "unknown section %q", s)
		}
		if err != nil {
			return d, apperr.Wrap(apperr.CodeValidation, "invalid "+string(s)+" payload", err)
		}
	}
	return out.normalize(), nil
}

// sortedKeys yields known sections in document order followed by any
// unknown keys, so Apply reports unknown names deterministically.
func (p Partial) sortedKeys() []Section {
	keys := p.Sections()
	for s := range p {
		if _, ok := ParseSection(string(s)); !ok {
			keys = append(keys, s)
		}
	}
	return keys
}

// overlay decodes patch as a JSON object and writes its fields over dst.
// Fields explicitly set to null decode as null (clearing pointer fields).
func overlay(dst any, patch json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return err
	}
	base, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}
	buf, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, dst)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
