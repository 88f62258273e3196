package tryon

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		hasReference bool
		want         Route
	}{
		{
			name: "visual keyword routes to edit",
			text: "make the frames red",
			want: RouteEditImage,
		},
		{
			name: "named color routes to edit",
			text: "I want them in tortoise",
			want: RouteEditImage,
		},
		{
			name: "commerce keyword routes to consult",
			text: "where can I buy these",
			want: RouteConsult,
		},
		{
			name: "commerce wins over visual",
			text: "find similar gold frames",
			want: RouteConsult,
		},
		{
			name: "price question with visual words still consults",
			text: "what's the price of thinner metal rims",
			want: RouteConsult,
		},
		{
			name: "neither set defaults to consult",
			text: "do these suit my face?",
			want: RouteConsult,
		},
		{
			name: "upper case is normalized",
			text: "MAKE THE LENSES BIGGER",
			want: RouteEditImage,
		},
		{
			name:         "reference forces edit regardless of text",
			text:         "where can I buy these",
			hasReference: true,
			want:         RouteEditImage,
		},
		{
			name:         "reference forces edit with empty text",
			text:         "",
			hasReference: true,
			want:         RouteEditImage,
		},
		{
			name: "empty text without reference consults",
			text: "",
			want: RouteConsult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text, tt.hasReference)
			if got != tt.want {
				t.Errorf("Classify(%q, %v) = %v, want %v", tt.text, tt.hasReference, got, tt.want)
			}
		})
	}
}
