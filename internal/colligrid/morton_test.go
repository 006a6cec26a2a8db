package colligrid

import "testing"

func TestMortonEncodeKnownValues(t *testing.T) {
	cases := []struct {
		x, y uint16
		want uint32
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 2},
		{1, 1, 3},
		{3, 3, 15},
	}
	for _, c := range cases {
		if got := MortonEncode(c.x, c.y); got != c.want {
			t.Errorf("MortonEncode(%d,%d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestCellIDMatchesMortonForSmallCoords(t *testing.T) {
	if CellID(0, 1) != MortonEncode(0, 1) {
		t.Fatal("CellID(0,1) must equal raw Morton(0,1) for small positive coords")
	}
	if CellID(1, 1) != MortonEncode(1, 1) {
		t.Fatal("CellID(1,1) must equal raw Morton(1,1) for small positive coords")
	}
}

func TestMortonDecodeInvertsEncode(t *testing.T) {
	cases := [][2]uint16{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {3, 3}, {12345, 6789}}
	for _, c := range cases {
		code := MortonEncode(c[0], c[1])
		x, y := MortonDecode(code)
		if x != c[0] || y != c[1] {
			t.Errorf("MortonDecode(MortonEncode(%d,%d)) = (%d,%d)", c[0], c[1], x, y)
		}
	}
}

func TestCellCoordFloorsTowardNegativeInfinity(t *testing.T) {
	cx, cy := CellCoord(-1, -0.5, 22.0)
	if cx != -1 || cy != -1 {
		t.Fatalf("CellCoord(-1,-0.5,22.0) = (%d,%d), want (-1,-1)", cx, cy)
	}
	cx, cy = CellCoord(21.9, 0, 22.0)
	if cx != 0 || cy != 0 {
		t.Fatalf("CellCoord(21.9,0,22.0) = (%d,%d), want (0,0)", cx, cy)
	}
}
