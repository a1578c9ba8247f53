package repair

import (
	"testing"

	"github.com/openregulatory/regsearch/pkg/document"
)

// Conformance corpus for the pseudo-JSON repair. These inputs are shaped
// like the payloads the trade-data feed actually emits; the expectations pin
// the repair behavior, including its documented limitations.
func TestList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []document.RelatedLink
	}{
		{
			name: "single object",
			raw:  `[{url: https://www.legislation.gov.uk/ukpga/2008/27, title: Climate Change Act 2008}]`,
			want: []document.RelatedLink{
				{URL: "https://www.legislation.gov.uk/ukpga/2008/27", Title: "Climate Change Act 2008"},
			},
		},
		{
			name: "multiple objects",
			raw:  `[{url: https://a.example/1, title: First Act}, {url: https://a.example/2, title: Second Act}]`,
			want: []document.RelatedLink{
				{URL: "https://a.example/1", Title: "First Act"},
				{URL: "https://a.example/2", Title: "Second Act"},
			},
		},
		{
			name: "comma inside title survives",
			raw:  `[{url: https://a.example/3, title: Health, Safety and Welfare Regulations 1992}]`,
			want: []document.RelatedLink{
				{URL: "https://a.example/3", Title: "Health, Safety and Welfare Regulations 1992"},
			},
		},
		{
			name: "title before url",
			raw:  `[{title: Some Order 2015, url: https://a.example/4}]`,
			want: []document.RelatedLink{
				{URL: "https://a.example/4", Title: "Some Order 2015"},
			},
		},
		{
			name: "partially quoted fragments",
			raw:  `[{'url': 'https://a.example/5', 'title': 'Quoted Act'}]`,
			want: []document.RelatedLink{
				{URL: "https://a.example/5", Title: "Quoted Act"},
			},
		},
		{
			name: "missing title",
			raw:  `[{url: https://a.example/6}]`,
			want: []document.RelatedLink{{URL: "https://a.example/6"}},
		},
		{
			name: "fragment without url dropped",
			raw:  `[{title: Orphan Title}, {url: https://a.example/7, title: Kept}]`,
			want: []document.RelatedLink{{URL: "https://a.example/7", Title: "Kept"}},
		},
		{name: "empty list", raw: `[]`, want: nil},
		{name: "empty string", raw: ``, want: nil},
		{name: "whitespace", raw: `   `, want: nil},
		{
			// Documented limitation: ", url:" inside a title starts a new
			// field and truncates the value.
			name: "title containing url key is truncated",
			raw:  `[{title: See also, url: https://a.example/8, url: https://a.example/9}]`,
			want: []document.RelatedLink{{URL: "https://a.example/9", Title: "See also"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := List(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("List() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("link %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
