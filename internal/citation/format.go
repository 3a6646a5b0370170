package citation

import (
	"fmt"
	"strings"
)

// Format renders one citation per style. When numbered is true a leading
// index marker is added; inline citation lists (e.g. embedded in prose)
// pass numbered=false and omit it.
func Format(style Style, index int, numbered bool, meta SourceMeta) string {
	body := formatBody(style, meta)
	if !numbered {
		return body
	}
	if style == StyleIEEE {
		return fmt.Sprintf("[%d] %s", index, body)
	}
	return fmt.Sprintf("%d. %s", index, body)
}

func formatBody(style Style, meta SourceMeta) string {
	title := orDefault(meta.Title, "Untitled")
	author := meta.Author
	date := orDefault(meta.Date, "n.d.")

	switch style {
	case StyleAPA:
		s := fmt.Sprintf("%s (%s). %s.", orAuthorFallback(author, title), date, title)
		return appendURL(s, meta.URL)
	case StyleMLA:
		s := fmt.Sprintf(`%s. "%s." %s.`, orAuthorFallback(author, title), title, date)
		return appendURL(s, meta.URL)
	case StyleChicago:
		s := fmt.Sprintf(`%s. "%s." %s.`, orAuthorFallback(author, title), title, date)
		return appendURL(s, meta.URL)
	case StyleIEEE:
		s := fmt.Sprintf(`%s, "%s," %s.`, orAuthorFallback(author, title), title, date)
		return appendURL(s, meta.URL)
	case StyleHarvard:
		s := fmt.Sprintf("%s %s, %s.", orAuthorFallback(author, title), date, title)
		return appendURL(s, meta.URL)
	default: // StyleSimple
		if meta.URL != "" {
			return fmt.Sprintf("%s (%s)", title, meta.URL)
		}
		return title
	}
}

func orAuthorFallback(author, title string) string {
	if author != "" {
		return author
	}
	return title
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func appendURL(s, url string) string {
	if url == "" {
		return s
	}
	return s + " " + url
}
