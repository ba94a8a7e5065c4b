package main

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	invalidComponentChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	repeatedWhitespace    = regexp.MustCompile(`\s+`)
	layoutPlaceholder     = regexp.MustCompile(`\{([a-z_]+)(?::0*(\d+))?\}`)
)

func sanitizeComponent(value string) string {
	value = invalidComponentChars.ReplaceAllString(value, "_")
	return strings.TrimSpace(repeatedWhitespace.ReplaceAllString(value, " "))
}

func normalizeTitle(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(title, "Feat.", "feat."))
}

// renderLayout expands a layout template such as
// "{album_artist}/{album} ({year})/{disc}-{track:02} {title}" against a
// file's tags. Numeric placeholders accept a zero-pad width suffix.
func renderLayout(template string, tags TagInfo) string {
	rendered := layoutPlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		parts := layoutPlaceholder.FindStringSubmatch(match)
		value := layoutValue(parts[1], tags)

		if parts[2] != "" {
			width, _ := strconv.Atoi(parts[2])

			if number, err := strconv.Atoi(value); err == nil {
				return fmt.Sprintf("%0*d", width, number)
			}
		}

		return value
	})

	components := strings.Split(rendered, "/")

	for i, component := range components {
		components[i] = sanitizeComponent(component)
	}

	return path.Join(components...)
}

func layoutValue(name string, tags TagInfo) string {
	switch name {
	case "album_artist":
		if tags.AlbumArtist != "" {
			return tags.AlbumArtist
		}

		if tags.Artist != "" {
			return tags.Artist
		}

		return "Unknown Artist"

	case "artist":
		if tags.Artist != "" {
			return tags.Artist
		}

		return "Unknown Artist"

	case "album":
		if tags.Album != "" {
			return tags.Album
		}

		return "Unknown Album"

	case "year":
		if tags.Year != "" {
			return tags.Year
		}

		return "0000"

	case "disc":
		if tags.Disc == 0 {
			return "1"
		}

		return strconv.Itoa(tags.Disc)

	case "track":
		return strconv.Itoa(tags.Track)

	case "title":
		if tags.Title != "" {
			return normalizeTitle(tags.Title)
		}

		return "Unknown Title"
	}

	return ""
}
