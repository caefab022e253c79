package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docpersona/internal/outline"
)

func TestHTMLParser_TitleAndHeadings(t *testing.T) {
	input := `<html><head><title>Travel Planner Guide</title></head>
<body>
<h1>Planning a Trip</h1>
<p>Intro.</p>
<h2>2. Budget</h2>
<script>document.write("<h2>fake</h2>")</script>
<h3>Food <em>and</em> Drink</h3>
<h5>Fine Print</h5>
</body></html>`

	p := &HTMLParser{}
	o, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Title != "Travel Planner Guide" {
		t.Errorf("expected title from <title>, got %q", o.Title)
	}
	want := []outline.Heading{
		{Level: outline.H1, Text: "Planning a Trip", Page: 1},
		{Level: outline.H2, Text: "Budget", Page: 1},
		{Level: outline.H3, Text: "Food and Drink", Page: 1},
		{Level: outline.H3, Text: "Fine Print", Page: 1},
	}
	if len(o.Headings) != len(want) {
		t.Fatalf("expected %d headings, got %+v", len(want), o.Headings)
	}
	for i, w := range want {
		if o.Headings[i] != w {
			t.Errorf("heading[%d]: expected %+v, got %+v", i, w, o.Headings[i])
		}
	}
}

func TestHTMLParser_TitleFallsBackToFirstH1(t *testing.T) {
	p := &HTMLParser{}
	o, err := p.Parse(strings.NewReader("<body><h2>Minor</h2><h1>Main Heading</h1></body>"), "x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Title != "Main Heading" {
		t.Errorf("expected first h1 as title, got %q", o.Title)
	}
}
