package prefixsum

import "testing"

// TestInclusiveScanS5Ones is the first half of concrete scenario S5: 83090
// ones must scan to 1,2,3,...,83090.
func TestInclusiveScanS5Ones(t *testing.T) {
	const n = 83090
	in := make([]uint32, n)
	for i := range in {
		in[i] = 1
	}
	out := InclusiveScan(in)
	if len(out) != n {
		t.Fatalf("expected %d outputs, got %d", n, len(out))
	}
	if out[0] != 1 || out[n-1] != uint32(n) {
		t.Fatalf("out[0]=%d out[n-1]=%d, want 1 and %d", out[0], out[n-1], n)
	}
	for i := 0; i < n; i++ {
		if out[i] != uint32(i+1) {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], i+1)
		}
	}
}

// TestInclusiveScanRandomAgainstBruteForce is scenario S5's "match a CPU
// reference" requirement, at a scale tests can run quickly; InclusiveScan
// itself stands in as the CPU reference for the GPU Scanner, so here we
// check it against an independent brute-force O(n^2) sum to validate its
// own correctness rather than assume it.
func TestInclusiveScanRandomAgainstBruteForce(t *testing.T) {
	in := make([]uint32, 2000)
	seed := uint32(12345)
	for i := range in {
		seed = seed*1664525 + 1013904223
		in[i] = seed % 10
	}
	out := InclusiveScan(in)
	for i := range in {
		var want uint32
		for j := 0; j <= i; j++ {
			want += in[j]
		}
		if out[i] != want {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], want)
		}
	}
}

func TestExclusiveFromInclusive(t *testing.T) {
	in := []uint32{3, 1, 4, 1, 5}
	inc := InclusiveScan(in)
	exc := ExclusiveFromInclusive(inc, in)
	want := []uint32{0, 3, 4, 8, 9}
	for i, w := range want {
		if exc[i] != w {
			t.Fatalf("exc[%d] = %d, want %d", i, exc[i], w)
		}
	}
}

func TestBlockScanLevelsTerminates(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{1, 1},
		{BlockSize, 1},
		{BlockSize + 1, 2},
		{BlockSize * BlockSize, 2},
		{BlockSize*BlockSize + 1, 3},
	}
	for _, c := range cases {
		if got := BlockScanLevels(c.n); got != c.want {
			t.Errorf("BlockScanLevels(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
