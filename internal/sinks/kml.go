package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

const kmlProlog = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://earth.google.com/kml/2.2">
<Placemark>
    <name>Path255</name>
    <Style>
        <LineStyle>
            <color>ff0000ff</color>
            <width>3.1</width>
        </LineStyle>
    </Style>
    <LineString>
        <tessellate>1</tessellate>
        <coordinates>
`

const kmlEpilog = `        </coordinates>
    </LineString>
</Placemark>
</kml>
`

// KML writes every gps_position event's coordinates as one
// <LineString> track. Grounded on kml_writer.hpp.
type KML struct {
	w   io.Writer
	err error
}

// NewKML wraps w, writing the static XML prolog immediately.
func NewKML(w io.Writer) (*KML, error) {
	if _, err := io.WriteString(w, kmlProlog); err != nil {
		return nil, err
	}
	return &KML{w: w}, nil
}

// Handle implements handler.Handler. Everything but gps_position is
// ignored (kml_writer.hpp's catch-all handle(...)).
func (k *KML) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind != schema.KindGPSPosition {
		return nil
	}
	e, ok := schema.Lookup(bytes[begin])
	if !ok {
		return nil
	}
	_, values := e.Decode(bytes[begin+1 : end-1])
	longitude, latitude := values[0].Cooked, values[1].Cooked
	_, err := fmt.Fprintf(k.w, "        %.8g,%.8g,0.0\n", longitude, latitude)
	return err
}

// Close writes the closing XML elements. Call once after the last
// event has been handled.
func (k *KML) Close() error {
	_, err := io.WriteString(k.w, kmlEpilog)
	return err
}

var _ handler.Handler = (*KML)(nil)
