package service

import (
	"strings"
)

type CaptionParts struct {
	Caption           string
	Hashtags          []string
	PhotographerNames []string
	EventID           string
	IncludeCredit     bool
	IncludeEventLink  bool
}

// ComposeCaption builds the text posted to every platform as blank-line
// separated blocks, caption first and hashtags last.
func ComposeCaption(siteURL string, p CaptionParts) string {
	blocks := []string{strings.TrimSpace(p.Caption)}

	if p.IncludeCredit {
		if names := uniqueNonEmpty(p.PhotographerNames); len(names) > 0 {
			blocks = append(blocks, "📷 "+strings.Join(names, ", "))
		}
	}

	if p.IncludeEventLink && p.EventID != "" && siteURL != "" {
		blocks = append(blocks, strings.TrimRight(siteURL, "/")+"/events/"+p.EventID)
	}

	if tags := NormalizeHashtags(p.Hashtags); len(tags) > 0 {
		blocks = append(blocks, strings.Join(tags, " "))
	}

	return strings.Join(blocks, "\n\n")
}

// NormalizeHashtags gives every tag one leading '#', strips inner spaces
// and drops case-insensitive duplicates.
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		tag = strings.Join(strings.Fields(tag), "")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, "#"+tag)
	}
	return out
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
