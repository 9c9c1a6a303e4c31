package domain

import (
	"fmt"
	"strings"
)

// Color groups RSOs by how their officers serve: calendar-year terms (blue),
// academic-year terms (orange), or a department-sponsored organization.
type Color string

const (
	ColorBlue       Color = "BLUE"
	ColorOrange     Color = "ORANGE"
	ColorDepartment Color = "DEPARTMENT"
)

// categoryPrefixToColor maps the leading word of a categories string to its Color.
// Order matters: prefixes are matched with HasPrefix in this order.
var categoryPrefixToColor = []struct {
	Prefix string
	Color  Color
}{
	{"Blue", ColorBlue},
	{"Orange", ColorOrange},
	{"Department", ColorDepartment},
}

// Colors lists every valid Color.
var Colors = []Color{ColorBlue, ColorOrange, ColorDepartment}

// ParseColor resolves an enum name such as "BLUE" into a Color.
func ParseColor(name string) (Color, error) {
	for _, c := range Colors {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown color %q", name)
}

// Valid reports whether c is one of the known colors.
func (c Color) Valid() bool {
	_, err := ParseColor(string(c))
	return err == nil
}

func (c Color) String() string {
	return string(c)
}

// UnmarshalText rejects names outside the enumeration.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ColorFromCategories classifies a raw categories string of the form
// "<Prefix>-<rest>". The string is split on the first "-" and the trimmed
// prefix must start with Blue, Orange or Department.
func ColorFromCategories(categories string) (Color, error) {
	if categories == "" {
		return "", ErrMissingCategories
	}

	prefix, _, _ := strings.Cut(categories, "-")
	prefix = strings.TrimSpace(prefix)

	for _, m := range categoryPrefixToColor {
		if strings.HasPrefix(prefix, m.Prefix) {
			return m.Color, nil
		}
	}
	return "", &CategoryError{Categories: categories, Prefix: prefix}
}
