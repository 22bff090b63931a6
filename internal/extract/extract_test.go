package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const pageURL = "https://example.com/posts/hello"

func TestExtract_TitlePrecedence(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta property="og:title" content="OG Title">
		<title>Document Title</title>
	</head><body><h1>Heading Title</h1></body></html>`
	c := Extract(html, pageURL, false)
	require.Equal(t, "OG Title", c.Title)

	html = `<html><head><title>Document Title</title></head><body><h1>Heading</h1></body></html>`
	c = Extract(html, pageURL, false)
	require.Equal(t, "Document Title", c.Title)

	html = `<html><body><h1>Heading Only</h1></body></html>`
	c = Extract(html, pageURL, false)
	require.Equal(t, "Heading Only", c.Title)

	c = Extract("<html><body><p>no title here</p></body></html>", pageURL, false)
	require.Equal(t, "Untitled", c.Title)
}

func TestExtract_TitleTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 400)
	c := Extract("<html><head><title>"+long+"</title></head><body></body></html>", pageURL, false)
	require.Len(t, c.Title, 200)
}

func TestExtract_DescriptionAndAuthor(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta name="description" content="A small personal site.">
		<meta name="author" content="Jamie Doe">
	</head><body></body></html>`
	c := Extract(html, pageURL, false)
	require.Equal(t, "A small personal site.", c.Description)
	require.Equal(t, "Jamie Doe", c.Author)
}

func TestExtract_SnippetSkipsChrome(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<main>
			<nav>Home About Archive</nav>
			<script>var x = 1;</script>
			<p>Actual article text lives here.</p>
			<footer>copyright</footer>
		</main>
	</body></html>`
	c := Extract(html, pageURL, false)
	require.Contains(t, c.Snippet, "Actual article text")
	require.NotContains(t, c.Snippet, "Home About Archive")
	require.NotContains(t, c.Snippet, "var x")
	require.NotContains(t, c.Snippet, "copyright")
}

func TestExtract_Keywords(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta name="keywords" content="gardening, Compost, gardening, go">
	</head><body>
		<h1>Growing Tomatoes Without Chemicals</h1>
		<h2>The watering schedule</h2>
	</body></html>`
	c := Extract(html, pageURL, false)

	require.Contains(t, c.Keywords, "gardening")
	require.Contains(t, c.Keywords, "compost")
	require.Contains(t, c.Keywords, "growing")
	// Deduplicated, stop words and short tokens dropped.
	require.NotContains(t, c.Keywords, "go")
	require.NotContains(t, c.Keywords, "the")
	require.LessOrEqual(t, len(c.Keywords), 10)
	count := 0
	for _, k := range c.Keywords {
		if k == "gardening" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestExtract_LinksCapped(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `<a href="https://site%d.example.org/">link</a>`, i)
	}
	b.WriteString("</body></html>")

	c := Extract(b.String(), pageURL, false)
	require.Len(t, c.Links, 20)

	all := Extract(b.String(), pageURL, true)
	require.Len(t, all.Links, 50)
}

func TestExtract_LinksResolvedAndFiltered(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="/about">about</a>
		<a href="#section">anchor</a>
		<a href="mailto:me@example.com">mail</a>
		<a href="tel:+15551234">call</a>
		<a href="javascript:void(0)">js</a>
		<a href="https://other.example.org/page#frag">other</a>
		<a href="https://other.example.org/page">dupe</a>
	</body></html>`
	c := Extract(html, pageURL, false)

	require.Equal(t, []string{
		"https://example.com/about",
		"https://other.example.org/page",
	}, c.Links)
}

func TestExtract_IndieWebMarkers(t *testing.T) {
	t.Parallel()

	html := `<html><body><article class="h-entry"><a rel="me" href="https://social.example/@me">me</a></article></body></html>`
	c := Extract(html, pageURL, false)
	require.True(t, c.HasIndieWebMarkers)

	c = Extract("<html><body><p>plain page</p></body></html>", pageURL, false)
	require.False(t, c.HasIndieWebMarkers)
}

func TestExtract_ParkedDomainDetected(t *testing.T) {
	t.Parallel()

	html := `<html><body><h1>example.com</h1><p>This domain is for sale. Related searches:</p></body></html>`
	c := Extract(html, pageURL, false)
	require.True(t, c.IsParked)
}

func TestExtract_PersonalSiteSignals(t *testing.T) {
	t.Parallel()

	c := Extract(`<html><body><p>Welcome to my blog where I write about birds.</p></body></html>`, pageURL, false)
	require.True(t, c.IsPersonalSite)

	c = Extract(`<html><body><p>Enterprise solutions for scale.</p></body></html>`,
		"https://jamie.github.io/", false)
	require.True(t, c.IsPersonalSite)

	c = Extract(`<html><body><p>Enterprise solutions for scale.</p></body></html>`,
		"https://www.bigcorp.com/", false)
	require.False(t, c.IsPersonalSite)
}

func TestExtract_TechStack(t *testing.T) {
	t.Parallel()

	html := `<html><head><meta name="generator" content="Hugo 0.123.4"></head><body></body></html>`
	c := Extract(html, pageURL, false)
	require.Equal(t, []string{"Hugo"}, c.TechStack)

	html = `<html><body><div id="__next">app</div><link href="/wp-content/style.css"></body></html>`
	c = Extract(html, pageURL, false)
	require.Contains(t, c.TechStack, "Next.js")
	require.Contains(t, c.TechStack, "WordPress")

	c = Extract("<html><body><p>hand written</p></body></html>", pageURL, false)
	require.Empty(t, c.TechStack)
}

func TestExtract_PublishedDate(t *testing.T) {
	t.Parallel()

	html := `<html><head><meta property="article:published_time" content="2024-03-15T10:00:00Z"></head><body></body></html>`
	c := Extract(html, pageURL, false)
	require.Equal(t, "2024-03-15", c.PublishedDate)

	html = `<html><body><time datetime="2023-07-01">July 2023</time></body></html>`
	c = Extract(html, pageURL, false)
	require.Equal(t, "2023-07-01", c.PublishedDate)

	c = Extract("<html><body><p>undated</p></body></html>", pageURL, false)
	require.Empty(t, c.PublishedDate)
}

func TestExtract_ContentLengthCountsVisibleText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("words in the body ", 20)
	html := "<html><body><script>ignored()</script><p>" + text + "</p></body></html>"
	c := Extract(html, pageURL, false)
	require.Greater(t, c.ContentLength, 300)
	require.Less(t, c.ContentLength, 400)
}

func TestIsPersonalDomain_NameShapedHosts(t *testing.T) {
	t.Parallel()

	require.True(t, IsPersonalDomain("https://jamie.github.io/blog"))
	require.True(t, IsPersonalDomain("https://someone.neocities.org/"))
	require.True(t, IsPersonalDomain("https://jamie-doe.dev/"))
	require.False(t, IsPersonalDomain("https://www.example.com/"))
}
