package clix

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"recall/internal/models"
)

func ParseTags(flags *pflag.FlagSet) []string {
	tagsStr, _ := flags.GetString("tags")
	return splitList(tagsStr)
}

func ParseContentTypes(flags *pflag.FlagSet) []models.ContentType {
	typesStr, _ := flags.GetString("types")
	var types []models.ContentType
	for _, t := range splitList(typesStr) {
		types = append(types, models.ContentType(t))
	}
	return types
}

// ParseDateRange reads --from/--to as RFC 3339 timestamps or YYYY-MM-DD
// dates. Either bound may be absent.
func ParseDateRange(flags *pflag.FlagSet) (from, to *time.Time, err error) {
	if raw, _ := flags.GetString("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if raw, _ := flags.GetString("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
