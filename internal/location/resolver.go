package location

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Source interface {
	ListProvinces(ctx context.Context) ([]domain.Province, error)
	ListDistricts(ctx context.Context, provinceID int) ([]domain.District, error)
	ListWards(ctx context.Context, districtID int) ([]domain.Ward, error)
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options is what one dropdown shows. A failed lookup yields no items, a
// disabled dropdown and a notice for the user; it is never an error.
type Options struct {
	Level    Level    `json:"level"`
	Items    []Option `json:"items"`
	Disabled bool     `json:"disabled"`
	Notice   string   `json:"notice,omitempty"`
}

type Names struct {
	Province string `json:"provinceName"`
	District string `json:"districtName"`
	Ward     string `json:"wardName"`
}

type Resolver struct {
	source Source
	logger *slog.Logger
}

func NewResolver(source Source, logger *slog.Logger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// Options lists the choices for level given the parents already in sel.
func (r *Resolver) Options(ctx context.Context, sel Selection, level Level) Options {
	out := Options{Level: level, Items: []Option{}}

	var (
		items []Option
		err   error
	)
	switch level {
	case LevelProvince:
		items, err = r.provinceOptions(ctx)
	case LevelDistrict:
		if sel.ProvinceID == 0 {
			out.Disabled = true
			return out
		}
		items, err = r.districtOptions(ctx, sel.ProvinceID)
	case LevelWard:
		if sel.DistrictID == 0 {
			out.Disabled = true
			return out
		}
		items, err = r.wardOptions(ctx, sel.DistrictID)
	default:
		out.Disabled = true
		return out
	}

	if err != nil {
		r.logger.Warn("failed to load location options", "level", level.String(), "error", err)
		out.Disabled = true
		out.Notice = backend.Message(err, "Could not load "+level.String()+" list, please try again")
		return out
	}
	out.Items = items
	return out
}

func (r *Resolver) provinceOptions(ctx context.Context) ([]Option, error) {
	provinces, err := r.source.ListProvinces(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Option, 0, len(provinces))
	for _, p := range provinces {
		items = append(items, Option{Value: strconv.Itoa(p.ID), Label: p.Name})
	}
	return items, nil
}

func (r *Resolver) districtOptions(ctx context.Context, provinceID int) ([]Option, error) {
	districts, err := r.source.ListDistricts(ctx, provinceID)
	if err != nil {
		return nil, err
	}
	items := make([]Option, 0, len(districts))
	for _, d := range districts {
		items = append(items, Option{Value: strconv.Itoa(d.ID), Label: d.Name})
	}
	return items, nil
}

func (r *Resolver) wardOptions(ctx context.Context, districtID int) ([]Option, error) {
	wards, err := r.source.ListWards(ctx, districtID)
	if err != nil {
		return nil, err
	}
	items := make([]Option, 0, len(wards))
	for _, w := range wards {
		items = append(items, Option{Value: w.Code, Label: w.Name})
	}
	return items, nil
}

// ResolveNames looks up the display names of a complete selection. The three
// lists are fetched concurrently.
func (r *Resolver) ResolveNames(ctx context.Context, sel Selection) (Names, error) {
	if !sel.Complete() {
		return Names{}, fmt.Errorf("%w: province, district and ward are required", ErrInvalidSelection)
	}

	var (
		provinces []domain.Province
		districts []domain.District
		wards     []domain.Ward
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		provinces, err = r.source.ListProvinces(gctx)
		return err
	})
	g.Go(func() (err error) {
		districts, err = r.source.ListDistricts(gctx, sel.ProvinceID)
		return err
	})
	g.Go(func() (err error) {
		wards, err = r.source.ListWards(gctx, sel.DistrictID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Names{}, fmt.Errorf("resolve location names: %w", err)
	}

	var names Names
	for _, p := range provinces {
		if p.ID == sel.ProvinceID {
			names.Province = p.Name
		}
	}
	for _, d := range districts {
		if d.ID == sel.DistrictID {
			names.District = d.Name
		}
	}
	for _, w := range wards {
		if w.Code == sel.WardCode {
			names.Ward = w.Name
		}
	}

	switch {
	case names.Province == "":
		return Names{}, fmt.Errorf("%w: province %d", ErrUnknownLocation, sel.ProvinceID)
	case names.District == "":
		return Names{}, fmt.Errorf("%w: district %d", ErrUnknownLocation, sel.DistrictID)
	case names.Ward == "":
		return Names{}, fmt.Errorf("%w: ward %s", ErrUnknownLocation, sel.WardCode)
	}
	return names, nil
}

// FormatAddress joins street and location names, most specific first.
func FormatAddress(street string, names Names) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{street, names.Ward, names.District, names.Province} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
