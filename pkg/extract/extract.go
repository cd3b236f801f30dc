// Package extract turns raw page HTML into tagged contact rows. It is a
// thin collaborator: the crawl loop does not depend on how posts are found
// or how addresses are matched.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedreach/pkg/models"
)

// EmailRegex matches address-like tokens in post text
var EmailRegex = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

// Posts parses HTML and returns the visible text of each post, deduplicated
// while preserving document order. Feed posts are divs with role="article";
// divs carrying a data-urn attribute are the fallback.
func Posts(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	sel := doc.Find(`div[role="article"]`)
	if sel.Length() == 0 {
		sel = doc.Find(`div[data-urn]`)
	}

	var posts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := normalizeText(s.Text())
		if text != "" {
			posts = append(posts, text)
		}
	})

	// Deduplicate while preserving order
	seen := make(map[string]bool, len(posts))
	unique := posts[:0]
	for _, p := range posts {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	return unique, nil
}

// normalizeText collapses runs of whitespace into single spaces
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Emails returns every address-like match in the text, lowercased.
// Duplicates are preserved; the aggregator is responsible for counting.
func Emails(text string) []string {
	matches := EmailRegex.FindAllString(text, -1)
	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		emails = append(emails, strings.ToLower(m))
	}
	return emails
}

// Contacts extracts every email observation from the HTML and tags it with
// the originating category and query.
func Contacts(html, category, query string) ([]models.ExtractedContact, error) {
	posts, err := Posts(html)
	if err != nil {
		return nil, err
	}

	var contacts []models.ExtractedContact
	for _, post := range posts {
		for _, email := range Emails(post) {
			contacts = append(contacts, models.ExtractedContact{
				Email:    email,
				Category: category,
				Query:    query,
			})
		}
	}
	return contacts, nil
}
