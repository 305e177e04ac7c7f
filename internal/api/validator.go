package api

import (
	"fmt"
	"strings"
)

const (
	maxTitleLength       = 512
	maxDescriptionLength = 65536
	maxGenres            = 32
	maxGenreLength       = 64
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// validateCreateRequest checks length constraints on a new record.
func validateCreateRequest(req *createRecordRequest) error {
	errs := make(map[string]string)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if len(req.Description) > maxDescriptionLength {
		errs["description"] = fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)
	}
	if len(req.Genres) > maxGenres {
		errs["genres"] = fmt.Sprintf("at most %d genres allowed", maxGenres)
	}
	for _, g := range req.Genres {
		if strings.TrimSpace(g) == "" {
			errs["genres"] = "genres must not be blank"
			break
		}
		if len(g) > maxGenreLength {
			errs["genres"] = fmt.Sprintf("each genre must be at most %d characters", maxGenreLength)
			break
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
