package extract

import (
	"reflect"
	"testing"
)

func TestPostsPrimarySelector(t *testing.T) {
	html := `<html><body>
		<div role="article">First post   with
			broken    whitespace</div>
		<div role="article">Second post</div>
		<div data-urn="ignored">Fallback only fires when no articles exist</div>
	</body></html>`

	posts, err := Posts(html)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}

	expected := []string{"First post with broken whitespace", "Second post"}
	if !reflect.DeepEqual(posts, expected) {
		t.Errorf("Expected %v, got %v", expected, posts)
	}
}

func TestPostsFallbackSelector(t *testing.T) {
	html := `<html><body>
		<div data-urn="urn:1">Alpha</div>
		<div data-urn="urn:2">Beta</div>
		<div>Plain div, never a post</div>
	</body></html>`

	posts, err := Posts(html)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}

	expected := []string{"Alpha", "Beta"}
	if !reflect.DeepEqual(posts, expected) {
		t.Errorf("Expected %v, got %v", expected, posts)
	}
}

func TestPostsDeduplicates(t *testing.T) {
	html := `<html><body>
		<div role="article">Repeated promo</div>
		<div role="article">Unique post</div>
		<div role="article">Repeated promo</div>
	</body></html>`

	posts, err := Posts(html)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}

	expected := []string{"Repeated promo", "Unique post"}
	if !reflect.DeepEqual(posts, expected) {
		t.Errorf("Expected %v, got %v", expected, posts)
	}
}

func TestPostsEmptyDocument(t *testing.T) {
	posts, err := Posts(`<html><body><p>No posts here</p></body></html>`)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("Expected no posts, got %v", posts)
	}
}

func TestEmails(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			"single address",
			"Send your CV to Jobs@Example.COM today",
			[]string{"jobs@example.com"},
		},
		{
			"plus and dots",
			"contact me: first.last+tag@sub.domain.io",
			[]string{"first.last+tag@sub.domain.io"},
		},
		{
			"multiple with duplicates preserved",
			"hr@corp.com or hr@corp.com or talent@corp.com",
			[]string{"hr@corp.com", "hr@corp.com", "talent@corp.com"},
		},
		{
			"no addresses",
			"We are hiring! Apply on our website.",
			[]string{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Emails(test.text); !reflect.DeepEqual(got, test.expected) {
				t.Errorf("Expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestContactsTagsEveryObservation(t *testing.T) {
	html := `<html><body>
		<div role="article">Apply at hiring@acme.dev or ping ceo@acme.dev</div>
		<div role="article">Also hiring@acme.dev works</div>
	</body></html>`

	contacts, err := Contacts(html, "internship_searches", "hiring interns email")
	if err != nil {
		t.Fatalf("Contacts failed: %v", err)
	}

	if len(contacts) != 3 {
		t.Fatalf("Expected 3 observations, got %d", len(contacts))
	}
	for _, c := range contacts {
		if c.Category != "internship_searches" || c.Query != "hiring interns email" {
			t.Errorf("Observation not tagged correctly: %+v", c)
		}
	}
	if contacts[0].Email != "hiring@acme.dev" || contacts[1].Email != "ceo@acme.dev" {
		t.Errorf("Unexpected extraction order: %+v", contacts)
	}
}
