package docshelf

import (
	"net/url"
	"regexp"
	"strings"
)

// Source describes a named documentation set that can be fetched.
type Source struct {
	Name        string `json:"name" yaml:"name"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`

	// MaxItems caps the number of pages the fetcher retrieves. Zero means
	// the fetcher's own default.
	MaxItems int `json:"maxItems,omitempty" yaml:"max_items,omitempty"`
}

// CategoryCustom is assigned to ad-hoc sources resolved from a raw URL.
const CategoryCustom = "custom"

var sourceNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.Name == "" {
		return Errorf(EINVALID, "source name required")
	}
	if !sourceNameRe.MatchString(s.Name) {
		return Errorf(EINVALID, "invalid source name %q", s.Name)
	}
	if s.URL == "" {
		return Errorf(EINVALID, "source %q: url required", s.Name)
	}
	if !IsURL(s.URL) {
		return Errorf(EINVALID, "source %q: url must be http or https", s.Name)
	}
	if s.MaxItems < 0 {
		return Errorf(EINVALID, "source %q: max items must not be negative", s.Name)
	}
	return nil
}

// SourceRegistry resolves symbolic source names to fetch targets.
type SourceRegistry interface {
	// Resolve returns the source registered under name. A raw http(s) URL
	// resolves to an ad-hoc source named after the URL.
	// Returns ENOTFOUND if the name is not registered.
	Resolve(name string) (*Source, error)

	// List returns all registered sources sorted by name, optionally
	// restricted to one category. An empty category returns everything.
	List(category string) ([]*Source, error)
}

// IsURL reports whether s is an absolute http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SourceFromURL builds an ad-hoc source for a raw documentation URL.
// The name is a slug of the host and path:
// https://docs.stripe.com/api → docs-stripe-com-api
func SourceFromURL(rawURL string) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !IsURL(rawURL) {
		return nil, Errorf(EINVALID, "invalid source url %q", rawURL)
	}

	name := slugify(u.Host + "/" + u.Path)
	if name == "" {
		return nil, Errorf(EINVALID, "cannot derive source name from %q", rawURL)
	}

	return &Source{
		Name:        name,
		URL:         rawURL,
		Description: "Documentation fetched from " + rawURL,
		Category:    CategoryCustom,
	}, nil
}

func slugify(s string) string {
	var sb strings.Builder
	prevHyphen := true

	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			prevHyphen = false
		} else if !prevHyphen {
			sb.WriteRune('-')
			prevHyphen = true
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}

// BuiltinSources returns the static source table. A fresh copy is returned
// on every call so callers cannot mutate the built-ins.
func BuiltinSources() []*Source {
	sources := make([]*Source, len(builtinSources))
	for i := range builtinSources {
		s := builtinSources[i]
		sources[i] = &s
	}
	return sources
}

var builtinSources = []Source{
	{Name: "bun", URL: "https://bun.sh/docs", Description: "Bun JavaScript runtime", Category: "runtime"},
	{Name: "d3", URL: "https://d3js.org", Description: "D3 data visualization library", Category: "frontend"},
	{Name: "go", URL: "https://go.dev/doc", Description: "Go language documentation", Category: "language", MaxItems: 500},
	{Name: "nextjs", URL: "https://nextjs.org/docs", Description: "Next.js React framework", Category: "frontend"},
	{Name: "plaid", URL: "https://plaid.com/docs", Description: "Plaid financial data API", Category: "api"},
	{Name: "react", URL: "https://react.dev/reference", Description: "React UI library", Category: "frontend"},
	{Name: "stripe", URL: "https://docs.stripe.com", Description: "Stripe payments API", Category: "api", MaxItems: 1000},
	{Name: "tailwind", URL: "https://tailwindcss.com/docs", Description: "Tailwind CSS utility framework", Category: "frontend"},
}
