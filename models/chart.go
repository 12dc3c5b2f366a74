package models

// Orientation of the bars in a chart.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Bar is a single labelled value in a chart.
type Bar struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Chart is a renderer-independent description of a bar chart.
// Bars are stored in display order: first bar is drawn first (top or left).
type Chart struct {
	Slug        string      `json:"slug" yaml:"slug"`
	Title       string      `json:"title" yaml:"title"`
	XLabel      string      `json:"x_label,omitempty" yaml:"x_label,omitempty"`
	YLabel      string      `json:"y_label,omitempty" yaml:"y_label,omitempty"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Bars        []Bar       `json:"bars" yaml:"bars"`
	Note        string      `json:"note,omitempty" yaml:"note,omitempty"`
}
