package export

// Dataset is tabular report content plus optional summary lines that
// renderers place above the table.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	Summary []SummaryLine
	// HighlightColumn names the column whose value picks a row colour in
	// renderers that support it.
	HighlightColumn string
}

// SummaryLine is a label/value pair such as a tier count.
type SummaryLine struct {
	Label string
	Value string
}

// Renderer turns a Dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}
