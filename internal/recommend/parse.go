package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/neexbeast/budgettrip/internal/destination"
)

// stripCodeFence removes a surrounding Markdown code fence, if any.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type wireCandidate struct {
	Name    *string `json:"name"`
	Type    *string `json:"type"`
	Country *string `json:"country"`
}

// parseCandidates decodes and validates the model's recommendation list.
// One malformed element invalidates the whole response.
func parseCandidates(raw string) ([]destination.LocationCandidate, error) {
	var wire []wireCandidate
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &wire); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}

	out := make([]destination.LocationCandidate, 0, len(wire))
	for i, w := range wire {
		cand, err := w.validate()
		if err != nil {
			return nil, fmt.Errorf("recommendation %d: %w", i, err)
		}
		out = append(out, cand)
	}

	if len(out) > candidatesPerQuery {
		out = out[:candidatesPerQuery]
	}
	return out, nil
}

func (w wireCandidate) validate() (destination.LocationCandidate, error) {
	if w.Name == nil || strings.TrimSpace(*w.Name) == "" {
		return destination.LocationCandidate{}, errors.New("missing name")
	}
	if w.Type == nil {
		return destination.LocationCandidate{}, errors.New("missing type")
	}

	cand := destination.LocationCandidate{
		Name: strings.TrimSpace(*w.Name),
		Type: destination.LocationType(strings.ToLower(strings.TrimSpace(*w.Type))),
	}

	switch cand.Type {
	case destination.TypeCity:
		if w.Country == nil || strings.TrimSpace(*w.Country) == "" {
			return destination.LocationCandidate{}, fmt.Errorf("city %s has no country", cand.Name)
		}
		cand.Country = strings.TrimSpace(*w.Country)
	case destination.TypeCountry:
		if w.Country != nil {
			cand.Country = strings.TrimSpace(*w.Country)
		}
	default:
		return destination.LocationCandidate{}, fmt.Errorf("unknown type %q", *w.Type)
	}

	return cand, nil
}

// parseAttractions decodes a JSON string array, dropping blanks and capping
// the length. An empty result is an error.
func parseAttractions(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("decoding attractions: %w", err)
	}

	out := make([]string, 0, attractionsPerSpot)
	for _, item := range items {
		if clean := strings.TrimSpace(item); clean != "" {
			out = append(out, clean)
		}
		if len(out) == attractionsPerSpot {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no attractions in response")
	}
	return out, nil
}
