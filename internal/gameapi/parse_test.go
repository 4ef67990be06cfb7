package gameapi

import "testing"

func TestParseSlider(t *testing.T) {
	html := `
	<script>
	$("#amountSlider").ionRangeSlider({
		min: 0,
		max: 2500000,
		from: 120000,
	});
	</script>`

	v := parseSlider(html)
	if v.Min != 0 || v.Max != 2500000 || v.From != 120000 {
		t.Fatalf("parseSlider() = %+v", v)
	}
}

func TestParseConnectionInfo(t *testing.T) {
	html := `<button onclick="startStorageConnection(4711,55.1234,-9.87,75,31337,8)">Move</button>`

	conn, ok := parseConnectionInfo(html)
	if !ok {
		t.Fatal("connection info not found")
	}
	if conn.PlantID != "4711" || conn.CurrentStorageID != "31337" || conn.LandID != "8" {
		t.Fatalf("parseConnectionInfo() = %+v", conn)
	}
	if conn.Lat != 55.1234 || conn.Lon != -9.87 || conn.MaxDistanceKm != 75 {
		t.Fatalf("parseConnectionInfo() coords = %+v", conn)
	}

	if _, ok := parseConnectionInfo("<p>no buttons here</p>"); ok {
		t.Fatal("missing connection info must not parse")
	}
}

func TestParseScanArea(t *testing.T) {
	html := `outerFields[f12] = L.rectangle([[54.2, 6.1], [56.8, 8.9]], {color: "#ff7800"});`

	area, ok := parseScanArea(html)
	if !ok {
		t.Fatal("scan area not found")
	}
	if area.North != 56.8 || area.South != 54.2 || area.West != 6.1 || area.East != 8.9 {
		t.Fatalf("parseScanArea() = %+v, corners not normalized", area)
	}
}

func TestParseDestinations(t *testing.T) {
	html := `
	<select id="destination">
		<option value="">Select destination</option>
		<option value="f-77,120,340.5,12,0">Brent Field</option>
		<option value="p-1,80,12.0,2,1">Home Port</option>
		<option value="broken">Broken Row</option>
	</select>`

	dests := parseDestinations(html)
	if len(dests) != 2 {
		t.Fatalf("parseDestinations() = %+v, want 2 entries", dests)
	}
	if dests[0].ID != "f-77" || dests[0].Name != "Brent Field" || dests[0].DistanceNm != 340.5 {
		t.Fatalf("first destination = %+v", dests[0])
	}
	if dests[1].ID != "p-1" || dests[1].DistanceNm != 12 {
		t.Fatalf("second destination = %+v", dests[1])
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1,234,567.89", 1234567.89},
		{"$42", 42},
		{"0", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := parseMoney(c.in); got != c.want {
			t.Errorf("parseMoney(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDecodeDemand(t *testing.T) {
	t.Run("bare map", func(t *testing.T) {
		var demand map[string]float64
		if err := decodeDemand(`{"g1": 12000, "g2": 500}`, &demand); err != nil {
			t.Fatalf("decodeDemand() = %v", err)
		}
		if demand["g1"] != 12000 || demand["g2"] != 500 {
			t.Fatalf("demand = %v", demand)
		}
	})

	t.Run("wrapped gridList", func(t *testing.T) {
		var demand map[string]float64
		if err := decodeDemand(`{"gridList": {"g1": 9000}}`, &demand); err != nil {
			t.Fatalf("decodeDemand() = %v", err)
		}
		if demand["g1"] != 9000 {
			t.Fatalf("demand = %v", demand)
		}
	})

	t.Run("garbage fails", func(t *testing.T) {
		var demand map[string]float64
		if err := decodeDemand(`<html>session expired</html>`, &demand); err == nil {
			t.Fatal("non-JSON body must fail")
		}
	})
}
