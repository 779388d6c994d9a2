package location

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidSelection = errors.New("invalid location selection")
	ErrUnknownLocation  = errors.New("unknown location")
)

type Level int

const (
	LevelProvince Level = iota + 1
	LevelDistrict
	LevelWard
)

func (l Level) String() string {
	switch l {
	case LevelProvince:
		return "province"
	case LevelDistrict:
		return "district"
	case LevelWard:
		return "ward"
	default:
		return "unknown"
	}
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "province":
		return LevelProvince, nil
	case "district":
		return LevelDistrict, nil
	case "ward":
		return LevelWard, nil
	default:
		return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidSelection, s)
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Selection is the province -> district -> ward form state. Zero values mean
// "not selected".
type Selection struct {
	ProvinceID int    `json:"provinceId,omitempty"`
	DistrictID int    `json:"districtId,omitempty"`
	WardCode   string `json:"wardCode,omitempty"`
}

// Select sets one level and clears every level below it. An empty value
// clears the level itself. Selecting below an unset parent is rejected.
func (s Selection) Select(level Level, value string) (Selection, error) {
	value = strings.TrimSpace(value)

	switch level {
	case LevelProvince:
		id, err := parseID(level, value)
		if err != nil {
			return s, err
		}
		return Selection{ProvinceID: id}, nil

	case LevelDistrict:
		if s.ProvinceID == 0 {
			return s, fmt.Errorf("%w: province must be selected first", ErrInvalidSelection)
		}
		id, err := parseID(level, value)
		if err != nil {
			return s, err
		}
		return Selection{ProvinceID: s.ProvinceID, DistrictID: id}, nil

	case LevelWard:
		if s.DistrictID == 0 {
			return s, fmt.Errorf("%w: district must be selected first", ErrInvalidSelection)
		}
		return Selection{ProvinceID: s.ProvinceID, DistrictID: s.DistrictID, WardCode: value}, nil

	default:
		return s, fmt.Errorf("%w: unknown level %d", ErrInvalidSelection, level)
	}
}

// Complete reports whether all three levels are selected.
func (s Selection) Complete() bool {
	return s.ProvinceID != 0 && s.DistrictID != 0 && s.WardCode != ""
}

// Next is the level whose options the form needs after s, or 0 when complete.
func (s Selection) Next() Level {
	switch {
	case s.ProvinceID == 0:
		return LevelProvince
	case s.DistrictID == 0:
		return LevelDistrict
	case s.WardCode == "":
		return LevelWard
	default:
		return 0
	}
}

func parseID(level Level, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %s id %q is not numeric", ErrInvalidSelection, level, value)
	}
	return id, nil
}
