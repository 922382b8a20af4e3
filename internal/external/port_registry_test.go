package external

import (
	"strings"
	"testing"
)

func TestPortCSVLoaderParsesGeometry(t *testing.T) {
	csv := "name,country,geometry,major_port,is_russian_oil_terminal,is_eu\n" +
		"Primorsk,RU,\"POINT(28.0 60.3)\",true,true,false\n"

	ports, err := PortCSVLoader{}.LoadPorts(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 1 {
		t.Fatalf("expected 1 port, got %d", len(ports))
	}
	p := ports[0]
	if p.Name != "Primorsk" || !p.IsRussianOilTerminal || p.IsEU {
		t.Fatalf("unexpected port record: %+v", p)
	}
	if p.Lon != 28.0 || p.Lat != 60.3 {
		t.Fatalf("expected lon/lat derived from WKT, got lon=%v lat=%v", p.Lon, p.Lat)
	}
}

func TestPortCSVLoaderSkipsUnparseableGeometry(t *testing.T) {
	csv := "name,country,geometry\n" +
		"Nowhere,XX,not-wkt\n"

	ports, err := PortCSVLoader{}.LoadPorts(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 0 {
		t.Fatalf("expected unparseable geometry rows to be skipped, got %d", len(ports))
	}
}
