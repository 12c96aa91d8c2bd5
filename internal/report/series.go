package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
)

// Point is one labelled value of a series.
type Point struct {
	Label string  `yaml:"label"`
	Value float64 `yaml:"value"`
}

// Series is a named, ordered list of points, ready for a bar chart.
type Series struct {
	Name   string  `yaml:"name"`
	XLabel string  `yaml:"x_label,omitempty"`
	YLabel string  `yaml:"y_label,omitempty"`
	Points []Point `yaml:"points"`
}

// FrequencySeries converts group counts into a series.
func FrequencySeries(name string, rows []aggregate.Frequency) Series {
	s := Series{Name: name, XLabel: "Joke ID", YLabel: "Frequency", Points: make([]Point, len(rows))}
	for i, r := range rows {
		s.Points[i] = Point{Label: r.Group, Value: float64(r.Count)}
	}
	return s
}

// MeanSeries converts group means into a series.
func MeanSeries(name string, rows []aggregate.GroupMean) Series {
	s := Series{Name: name, XLabel: "Joke ID", YLabel: "Average score", Points: make([]Point, len(rows))}
	for i, r := range rows {
		s.Points[i] = Point{Label: r.Group, Value: r.Mean}
	}
	return s
}

// WriteSeries encodes s as a YAML document.
func WriteSeries(w io.Writer, s Series) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
