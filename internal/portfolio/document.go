// Package portfolio holds the content model of the site: the six sections of
// the resource document, their defaults and the merge rules used when a
// partial update is applied.
package portfolio

import (
	"encoding/json"
	"slices"
)

// Section names one top-level part of the document.
type Section string

const (
	SectionPortfolio Section = "portfolio"
	SectionServices  Section = "services"
	SectionAbout     Section = "about"
	SectionContact   Section = "contact"
	SectionSettings  Section = "settings"
	SectionImages    Section = "images"
)

// Sections lists every section in document order.
var Sections = []Section{
	SectionPortfolio,
	SectionServices,
	SectionAbout,
	SectionContact,
	SectionSettings,
	SectionImages,
}

// ParseSection validates a section name taken from a URL or a payload key.
func ParseSection(name string) (Section, bool) {
	s := Section(name)
	if slices.Contains(Sections, s) {
		return s, true
	}
	return "", false
}

// IsList reports whether the section holds a sequence that is replaced
// wholesale on write.
func (s Section) IsList() bool {
	return s == SectionPortfolio || s == SectionServices
}

type Project struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Image       string `json:"image" yaml:"image"`
}

type Service struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
}

// About is the bio block. Counters are kept as strings because the admin
// form posts them verbatim.
type About struct {
	Name       string   `json:"name" yaml:"name"`
	Profession string   `json:"profession" yaml:"profession"`
	Bio        string   `json:"bio" yaml:"bio"`
	Projects   string   `json:"projects" yaml:"projects"`
	Clients    string   `json:"clients" yaml:"clients"`
	Experience string   `json:"experience" yaml:"experience"`
	Skills     []string `json:"skills" yaml:"skills"`
}

type Contact struct {
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone" yaml:"phone"`
	Location  string `json:"location" yaml:"location"`
	Behance   string `json:"behance" yaml:"behance"`
	Dribbble  string `json:"dribbble" yaml:"dribbble"`
	Instagram string `json:"instagram" yaml:"instagram"`
	LinkedIn  string `json:"linkedin" yaml:"linkedin"`
}

type Settings struct {
	PrimaryColor         string `json:"primaryColor" yaml:"primaryColor"`
	SecondaryColor       string `json:"secondaryColor" yaml:"secondaryColor"`
	PortfolioTitle       string `json:"portfolioTitle" yaml:"portfolioTitle"`
	PortfolioDescription string `json:"portfolioDescription" yaml:"portfolioDescription"`
}

// Images holds the two optional data-URI images and the background opacity
// as a percentage string.
type Images struct {
	HeroImage           *string `json:"heroImage" yaml:"heroImage"`
	HomeBackgroundImage *string `json:"homeBackgroundImage" yaml:"homeBackgroundImage"`
	BackgroundOpacity   string  `json:"backgroundOpacity" yaml:"backgroundOpacity"`
}

// Document is the single persisted aggregate.
type Document struct {
	Portfolio []Project `json:"portfolio" yaml:"portfolio"`
	Services  []Service `json:"services" yaml:"services"`
	About     About     `json:"about" yaml:"about"`
	Contact   Contact   `json:"contact" yaml:"contact"`
	Settings  Settings  `json:"settings" yaml:"settings"`
	Images    Images    `json:"images" yaml:"images"`
}

// Clone returns a deep copy, so that merging into the copy never aliases the
// receiver's slices or image pointers.
func (d Document) Clone() Document {
	out := d
	out.Portfolio = slices.Clone(d.Portfolio)
	out.Services = slices.Clone(d.Services)
	out.About.Skills = slices.Clone(d.About.Skills)
	out.Images.HeroImage = clonePtr(d.Images.HeroImage)
	out.Images.HomeBackgroundImage = clonePtr(d.Images.HomeBackgroundImage)
	return out.normalize()
}

// Get returns the value of one section.
func (d Document) Get(s Section) any {
	switch s {
	case SectionPortfolio:
		return d.Portfolio
	case SectionServices:
		return d.Services
	case SectionAbout:
		return d.About
	case SectionContact:
		return d.Contact
	case SectionSettings:
		return d.Settings
	case SectionImages:
		return d.Images
	}
	return nil
}

// Partial carries raw JSON per section. A section absent from the map is
// left untouched by Apply.
type Partial map[Section]json.RawMessage

// PartialOf builds a partial holding the complete current value of each
// listed section of d.
func PartialOf(d Document, sections ...Section) (Partial, error) {
	p := make(Partial, len(sections))
	for _, s := range sections {
		raw, err := json.Marshal(d.Get(s))
		if err != nil {
			return nil, err
		}
		p[s] = raw
	}
	return p, nil
}

// Sections returns the section names present in p, in document order.
func (p Partial) Sections() []Section {
	var out []Section
	for _, s := range Sections {
		if _, ok := p[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// normalize replaces nil collections with empty ones so every section
// encodes as a value rather than null, and drops duplicate skills.
func (d Document) normalize() Document {
	if d.Portfolio == nil {
		d.Portfolio = []Project{}
	}
	if d.Services == nil {
		d.Services = []Service{}
	}
	d.About.Skills = dedupe(d.About.Skills)
	return d
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
