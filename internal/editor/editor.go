// Package editor implements the admin operations on top of the resource API.
// Every operation reads the section it changes, edits it and writes it back,
// so two editors working at once follow last-write-wins.
package editor

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/client"
	"github.com/Zachkp/folio/internal/portfolio"
)

// Editor is one admin session.
type Editor struct {
	api *client.Client
	ids *portfolio.IDGenerator
}

// New returns an Editor writing through api.
func New(api *client.Client) *Editor {
	return &Editor{api: api, ids: portfolio.NewIDGenerator()}
}

// Login checks the admin credentials and keeps the issued token.
func (e *Editor) Login(ctx context.Context, username, password string) error {
	_, err := e.api.Login(ctx, username, password)
	return err
}

func (e *Editor) AddProject(ctx context.Context, p portfolio.Project) (portfolio.Project, error) {
	return addItem(ctx, e, portfolio.SectionPortfolio, p, projectID, func(p *portfolio.Project, id int64) { p.ID = id })
}

func (e *Editor) UpdateProject(ctx context.Context, p portfolio.Project) error {
	return updateItem(ctx, e, portfolio.SectionPortfolio, p, projectID)
}

func (e *Editor) DeleteProject(ctx context.Context, id int64) error {
	return deleteItem(ctx, e, portfolio.SectionPortfolio, id, projectID)
}

func (e *Editor) AddService(ctx context.Context, s portfolio.Service) (portfolio.Service, error) {
	return addItem(ctx, e, portfolio.SectionServices, s, serviceID, func(s *portfolio.Service, id int64) { s.ID = id })
}

func (e *Editor) UpdateService(ctx context.Context, s portfolio.Service) error {
	return updateItem(ctx, e, portfolio.SectionServices, s, serviceID)
}

func (e *Editor) DeleteService(ctx context.Context, id int64) error {
	return deleteItem(ctx, e, portfolio.SectionServices, id, serviceID)
}

func projectID(p portfolio.Project) int64 { return p.ID }
func serviceID(s portfolio.Service) int64 { return s.ID }

// SaveAbout writes the bio block. Skills are written as given.
func (e *Editor) SaveAbout(ctx context.Context, a portfolio.About) error {
	return e.api.PutSection(ctx, portfolio.SectionAbout, a)
}

// AddSkill appends a skill. Blank names are rejected; a skill already
// present is left as is.
func (e *Editor) AddSkill(ctx context.Context, skill string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return apperr.New(apperr.CodeValidation, "skill name is required")
	}
	about, err := e.about(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(about.Skills, skill) {
		return nil
	}
	return e.putSkills(ctx, append(about.Skills, skill))
}

// RemoveSkill deletes a skill. Removing an absent skill is a no-op.
func (e *Editor) RemoveSkill(ctx context.Context, skill string) error {
	about, err := e.about(ctx)
	if err != nil {
		return err
	}
	i := slices.Index(about.Skills, skill)
	if i < 0 {
		return nil
	}
	return e.putSkills(ctx, slices.Delete(about.Skills, i, i+1))
}

func (e *Editor) about(ctx context.Context) (portfolio.About, error) {
	var a portfolio.About
	err := e.read(ctx, portfolio.SectionAbout, &a)
	return a, err
}

func (e *Editor) putSkills(ctx context.Context, skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	return e.api.PutSection(ctx, portfolio.SectionAbout, map[string][]string{"skills": skills})
}

func (e *Editor) SaveContact(ctx context.Context, c portfolio.Contact) error {
	return e.api.PutSection(ctx, portfolio.SectionContact, c)
}

func (e *Editor) SaveSettings(ctx context.Context, s portfolio.Settings) error {
	return e.api.PutSection(ctx, portfolio.SectionSettings, s)
}

// SetBackgroundOpacity stores the home background opacity in percent.
func (e *Editor) SetBackgroundOpacity(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return apperr.Newf(apperr.CodeValidation, "opacity must be between 0 and 100, got %d", percent)
	}
	return e.api.PutSection(ctx, portfolio.SectionImages, map[string]string{"backgroundOpacity": strconv.Itoa(percent)})
}

// SetHeroImage uploads the hero image and returns the stored data URI.
func (e *Editor) SetHeroImage(ctx context.Context, mime string, data []byte) (string, error) {
	return e.setImage(ctx, portfolio.SlotHero, mime, data)
}

func (e *Editor) ClearHeroImage(ctx context.Context) error {
	return e.api.DeleteImage(ctx, portfolio.SlotHero)
}

// SetBackgroundImage uploads the home background image and returns the
// stored data URI.
func (e *Editor) SetBackgroundImage(ctx context.Context, mime string, data []byte) (string, error) {
	return e.setImage(ctx, portfolio.SlotBackground, mime, data)
}

func (e *Editor) ClearBackgroundImage(ctx context.Context) error {
	return e.api.DeleteImage(ctx, portfolio.SlotBackground)
}

// setImage checks type and size locally so an unacceptable file is never
// sent.
func (e *Editor) setImage(ctx context.Context, slot portfolio.ImageSlot, mime string, data []byte) (string, error) {
	if !portfolio.IsImageMIME(mime) {
		return "", apperr.New(apperr.CodeValidation, "Please select a valid image file")
	}
	if limit := slot.MaxBytes(); len(data) > limit {
		return "", apperr.Newf(apperr.CodeValidation, "File size must be less than %dMB", limit>>20)
	}
	return e.api.UploadImage(ctx, slot, mime, data)
}

func (e *Editor) read(ctx context.Context, sec portfolio.Section, v any) error {
	raw, err := e.api.Section(ctx, sec)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "decode "+string(sec), err)
	}
	return nil
}

func readList[T any](ctx context.Context, e *Editor, sec portfolio.Section) ([]T, error) {
	var list []T
	err := e.read(ctx, sec, &list)
	return list, err
}

func addItem[T any](ctx context.Context, e *Editor, sec portfolio.Section, item T, id func(T) int64, setID func(*T, int64)) (T, error) {
	list, err := readList[T](ctx, e, sec)
	if err != nil {
		return item, err
	}
	setID(&item, e.ids.NextFree(func(n int64) bool {
		return slices.ContainsFunc(list, func(x T) bool { return id(x) == n })
	}))
	if err := e.api.PutSection(ctx, sec, append(list, item)); err != nil {
		return item, err
	}
	return item, nil
}

func updateItem[T any](ctx context.Context, e *Editor, sec portfolio.Section, item T, id func(T) int64) error {
	list, err := readList[T](ctx, e, sec)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(list, func(x T) bool { return id(x) == id(item) })
	if i < 0 {
		return apperr.Newf(apperr.CodeNotFound, "no item with id %d in %s", id(item), sec)
	}
	list[i] = item
	return e.api.PutSection(ctx, sec, list)
}

func deleteItem[T any](ctx context.Context, e *Editor, sec portfolio.Section, target int64, id func(T) int64) error {
	list, err := readList[T](ctx, e, sec)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(list, func(x T) bool { return id(x) == target })
	if i < 0 {
		return apperr.Newf(apperr.CodeNotFound, "no item with id %d in %s", target, sec)
	}
	list = slices.Delete(list, i, i+1)
	if list == nil {
		list = []T{}
	}
	return e.api.PutSection(ctx, sec, list)
}
