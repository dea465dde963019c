package export

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
)

const kmlFileName = "Postcodes.kml"

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// KML document model, one placemark per located postcode with the address
// count carried as extended data so mapping tools can label and scale
// markers.
type kmlFile struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name         string          `xml:"name"`
	ExtendedData kmlExtendedData `xml:"ExtendedData"`
	Point        kmlPoint        `xml:"Point"`
}

type kmlExtendedData struct {
	Data []kmlData `xml:"Data"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlPoint struct {
	// KML coordinate tuples are "lon,lat".
	Coordinates string `xml:"coordinates"`
}

// KMLExporter writes the located postcodes as placemarks.
type KMLExporter struct {
	Dir string
}

func NewKMLExporter(dir string) *KMLExporter {
	return &KMLExporter{Dir: dir}
}

func (e *KMLExporter) Name() string { return "kml placemarks" }

func (e *KMLExporter) Export(ctx context.Context, run *domain.RunResult) (err error) {
	defer obs.Time(ctx, "export.kml")(&err)

	doc := kmlFile{
		Xmlns: kmlNamespace,
		Document: kmlDocument{
			Name:       run.DistrictLabel() + " Postcodes",
			Placemarks: make([]kmlPlacemark, 0, len(run.Located)),
		},
	}

	for _, lp := range run.Located {
		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			Name: lp.Postcode.String(),
			ExtendedData: kmlExtendedData{
				Data: []kmlData{
					{Name: "AddressCount", Value: strconv.Itoa(lp.AddressCount)},
				},
			},
			Point: kmlPoint{Coordinates: lp.Coordinates.KMLTuple()},
		})
	}

	path := filepath.Join(e.Dir, kmlFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("kml export: create %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("kml export: write header: %w", err)
	}

	enc := xml.NewEncoder(f)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("kml export: encode: %w", err)
	}

	return f.Close()
}
