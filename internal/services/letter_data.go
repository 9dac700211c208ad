package services

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"desa-portal/internal/models"
	"desa-portal/internal/processor"
	"desa-portal/internal/store"
)

// LetterDefaults are the static fallbacks used when the portal has no
// matching official or logo setting.
type LetterDefaults struct {
	Location           *time.Location
	SignerPosition     string
	DefaultSignerName  string
	DefaultSignerTitle string
	DefaultLogoURL     string
}

func (d LetterDefaults) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

type signer struct {
	name  string
	title string
}

// letterAssembler builds the render record of a request. Officials and the
// logo are looked up on every call so a change of office shows up at once.
type letterAssembler struct {
	store    store.ReferenceStore
	defaults LetterDefaults
}

func (a *letterAssembler) signer(ctx context.Context) (signer, error) {
	official, err := a.store.FindActiveOfficial(ctx, a.defaults.SignerPosition)
	if errors.Is(err, store.ErrNotFound) {
		official, err = a.store.FindTopOfficial(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		return signer{name: a.defaults.DefaultSignerName, title: a.defaults.DefaultSignerTitle}, nil
	}
	if err != nil {
		return signer{}, fmt.Errorf("failed to find signing official: %w", err)
	}
	return signer{name: official.Nama, title: official.Jabatan}, nil
}

func (a *letterAssembler) logoURL(ctx context.Context) (string, error) {
	logo, err := a.store.GetSetting(ctx, models.SettingLogoURL)
	if errors.Is(err, store.ErrNotFound) || (err == nil && strings.TrimSpace(logo) == "") {
		return a.defaults.DefaultLogoURL, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read logo setting: %w", err)
	}
	return logo, nil
}

// issueDate is the approval date of an issued letter and today otherwise
func (a *letterAssembler) issueDate(r *models.LetterRequest, now time.Time) time.Time {
	if r.ApprovedAt != nil {
		return r.ApprovedAt.In(a.defaults.location())
	}
	return now.In(a.defaults.location())
}

func (a *letterAssembler) assemble(ctx context.Context, r *models.LetterRequest, now time.Time) (*processor.LetterData, error) {
	s, err := a.signer(ctx)
	if err != nil {
		return nil, err
	}

	issued := a.issueDate(r, now)
	data := &processor.LetterData{
		NomorSurat:           r.NomorSurat,
		Tujuan:               r.Purpose,
		TanggalSurat:         &issued,
		NamaPenandatangan:    s.name,
		JabatanPenandatangan: s.title,
		Extra:                extraFields(r),
	}
	if p := r.Penduduk; p != nil {
		data.Nama = p.Nama
		data.NIK = p.NIK
		data.TempatLahir = p.TempatLahir
		data.TanggalLahir = p.TanggalLahir
		data.JenisKelamin = p.JenisKelamin
		data.Agama = p.Agama
		data.Pekerjaan = p.Pekerjaan
		if kk := p.KartuKeluarga; kk != nil {
			data.Alamat = kk.Alamat
			data.RT = kk.RT
			data.RW = kk.RW
		}
	}
	return data, nil
}

// extraFields copies the request's form data and adds an empty value for
// every declared field the citizen left out, so those render as "".
func extraFields(r *models.LetterRequest) models.FormData {
	extra := make(models.FormData)
	for key, v := range r.Data() {
		extra[key] = v
	}
	if r.Template != nil {
		for _, f := range r.Template.Fields {
			if _, ok := extra[f.Key]; !ok {
				extra[f.Key] = models.EmptyValue()
			}
		}
	}
	return extra
}

// CodeGenerator mints verification codes for a template code
type CodeGenerator func(templateCode string, now time.Time) (string, error)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewVerificationCode returns TEMPLATECODE-<base36 millis>-<random>. The
// random part carries 80 bits so codes cannot be guessed from the timestamp.
func NewVerificationCode(templateCode string, now time.Time) (string, error) {
	suffix := make([]byte, 10)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to read random suffix: %w", err)
	}
	prefix := strings.ToUpper(strings.TrimSpace(templateCode))
	if prefix == "" {
		prefix = "SURAT"
	}
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)),
		codeEncoding.EncodeToString(suffix),
	), nil
}

// tempLetterNumber is the placeholder number of a request awaiting approval
func tempLetterNumber(now time.Time) string {
	return models.TempLetterNumberPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}
