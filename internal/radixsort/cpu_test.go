package radixsort

import "testing"

// TestCPUSortS4 is the concrete scenario S4: sorting 25006 reversed
// integers must yield 0..25005 with the payload permutation identical to
// the key permutation (payload carries the original index).
func TestCPUSortS4(t *testing.T) {
	const n = 25006
	keys := make([]uint32, n)
	payload := make([]uint32, n)
	for i := 0; i < n; i++ {
		keys[i] = uint32(n - 1 - i)
		payload[i] = uint32(i)
	}

	sortedKeys, sortedPayload := CPUSort(keys, payload)

	for i := 0; i < n; i++ {
		if sortedKeys[i] != uint32(i) {
			t.Fatalf("sortedKeys[%d] = %d, want %d", i, sortedKeys[i], i)
		}
		// payload[i] for key v is the original index, which under this
		// construction equals n-1-v.
		want := uint32(n - 1 - int(sortedKeys[i]))
		if sortedPayload[i] != want {
			t.Fatalf("sortedPayload[%d] = %d, want %d", i, sortedPayload[i], want)
		}
	}
}

// TestCPUSortStability is general property 2: equal keys preserve input
// order, and the UNUSED sentinel (max uint32) sorts to a contiguous
// suffix.
func TestCPUSortStability(t *testing.T) {
	const unused = 0xFFFFFFFF
	keys := []uint32{5, 5, unused, 2, 5, unused, 2}
	payload := []uint32{0, 1, 2, 3, 4, 5, 6} // original indices, identifying which "5" is which

	sortedKeys, sortedPayload := CPUSort(keys, payload)

	want := []uint32{2, 2, 5, 5, 5, unused, unused}
	for i, w := range want {
		if sortedKeys[i] != w {
			t.Fatalf("sortedKeys[%d] = %d, want %d", i, sortedKeys[i], w)
		}
	}

	// The three equal keys (5) originally at payload indices 0,1,4 must
	// stay in that relative order.
	fivesOrder := []uint32{}
	for i, k := range sortedKeys {
		if k == 5 {
			fivesOrder = append(fivesOrder, sortedPayload[i])
		}
	}
	wantOrder := []uint32{0, 1, 4}
	for i, w := range wantOrder {
		if fivesOrder[i] != w {
			t.Fatalf("fivesOrder[%d] = %d, want %d (stability violated)", i, fivesOrder[i], w)
		}
	}

	// UNUSED entries form a contiguous suffix.
	firstUnused := -1
	for i, k := range sortedKeys {
		if k == unused {
			firstUnused = i
			break
		}
	}
	for i := firstUnused; i < len(sortedKeys); i++ {
		if sortedKeys[i] != unused {
			t.Fatalf("UNUSED entries not contiguous: sortedKeys[%d] = %d", i, sortedKeys[i])
		}
	}
}

func TestCPUSortEmpty(t *testing.T) {
	k, p := CPUSort(nil, nil)
	if len(k) != 0 || len(p) != 0 {
		t.Fatalf("expected empty output for empty input")
	}
}
