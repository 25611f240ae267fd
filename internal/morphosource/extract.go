package morphosource

import (
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/morphotools/morphoverify/internal/specimen"
)

// parseSearchResponse extracts media candidates from a raw registry response.
// The registry payload is heterogeneous: media items live under
// response.media or directly under response as a list, and individual fields
// arrive as scalars or one-element lists. Everything here is best effort,
// a missing or malformed field means "no value", only an unparseable document
// is an error.
func parseSearchResponse(body []byte) ([]Media, error) {
	root, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, err
	}

	items, err := root.GetObjectArray("response", "media")
	if err != nil {
		// Some responses carry the media list directly under "response"
		items, err = root.GetObjectArray("response")
		if err != nil {
			// Neither location exists, treat as an empty result set
			return nil, nil
		}
	}

	media := make([]Media, 0, len(items))
	for _, item := range items {
		media = append(media, Media{
			ID:      firstString(item, "id"),
			Title:   firstString(item, "physical_object_title"),
			Spacing: specimen.SpacingTriple{
				X: firstFloat(item, "x_pixel_spacing"),
				Y: firstFloat(item, "y_pixel_spacing"),
				Z: firstFloat(item, "z_pixel_spacing"),
			},
		})
	}

	return media, nil
}

// filterExactMatches keeps candidates whose physical object title equals the
// specimen identifier, ignoring case and surrounding whitespace.
func filterExactMatches(items []Media, specimenID string) []Media {
	var matches []Media
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.Title), specimenID) {
			matches = append(matches, item)
		}
	}
	return matches
}

// firstValue unwraps a field that may be a scalar or a one-element list.
func firstValue(item *jason.Object, key string) *jason.Value {
	value, err := item.GetValue(key)
	if err != nil {
		return nil
	}

	if list, err := value.Array(); err == nil {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}

	return value
}

// firstString extracts a string field, converting numeric values as needed.
func firstString(item *jason.Object, key string) string {
	value := firstValue(item, key)
	if value == nil {
		return ""
	}

	if s, err := value.String(); err == nil {
		return s
	}
	if n, err := value.Number(); err == nil {
		return n.String()
	}

	return ""
}

// firstFloat extracts a numeric field that the registry may serialize as a
// number or as a numeric string.
func firstFloat(item *jason.Object, key string) *float64 {
	value := firstValue(item, key)
	if value == nil {
		return nil
	}

	if f, err := value.Float64(); err == nil {
		return &f
	}
	if s, err := value.String(); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}

	return nil
}
