package u8maxpool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xzngycw/QNNPACK/internal/qparams"
)

// naiveMaxPool is the straightforward reference: per channel, scan the whole
// window, then saturate.
func naiveMaxPool(outputPixels, poolingSize, channels int,
	indirection []int, indirectionStride int,
	input []uint8, outputStride int,
	clamp qparams.U8Clamping) []uint8 {
	out := make([]uint8, (outputPixels-1)*outputStride+channels)
	for i := 0; i < outputPixels; i++ {
		for c := 0; c < channels; c++ {
			m := input[indirection[i*indirectionStride]+c]
			for k := 1; k < poolingSize; k++ {
				m = max(m, input[indirection[i*indirectionStride+k]+c])
			}
			out[i*outputStride+c] = clamp.Apply(m)
		}
	}
	return out
}

// makeCase builds a random input tensor plus an indirection buffer with
// overlapping windows, the way the operator's setup pass lays them out.
func makeCase(rng *rand.Rand, outputPixels, poolingSize, channels, indirectionStride int) ([]int, []uint8) {
	numPixels := 64
	input := make([]uint8, numPixels*channels)
	for i := range input {
		input[i] = uint8(rng.Intn(256))
	}
	indirection := make([]int, (outputPixels-1)*indirectionStride+poolingSize)
	for i := range indirection {
		indirection[i] = rng.Intn(numPixels) * channels
	}
	return indirection, input
}

func TestKernelsMatchNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := Select()
	require.GreaterOrEqual(t, cfg.MR, 2)
	require.GreaterOrEqual(t, cfg.QR, 1)
	require.GreaterOrEqual(t, cfg.KR, 2)

	fullRange := qparams.ComputeU8Clamping(0, 255)
	narrow := qparams.ComputeU8Clamping(40, 200)

	testCases := []struct {
		name        string
		poolingSize int
		channels    int
		clamp       qparams.U8Clamping
	}{
		{"small-window-narrow-channels", 4, 3, fullRange},
		{"window-below-mr", cfg.MR - 1, cfg.KR, fullRange},
		{"window-at-mr", cfg.MR, cfg.KR + 1, fullRange},
		{"window-one-remainder-pass", cfg.MR + cfg.QR, cfg.KR, fullRange},
		{"window-partial-remainder", cfg.MR + cfg.QR + 3, 2*cfg.KR + 5, fullRange},
		{"large-window", 25, cfg.KR, fullRange},
		{"clamped-output", 9, cfg.KR, narrow},
		{"clamped-sub-block", 9, cfg.KR - 1, narrow},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			const outputPixels = 7
			indirectionStride := tc.poolingSize + 2 // Windows overlap by two slots.
			outputStride := tc.channels + 1         // Output pixels are not densely packed.
			indirection, input := makeCase(rng, outputPixels, tc.poolingSize, tc.channels, indirectionStride)

			want := naiveMaxPool(outputPixels, tc.poolingSize, tc.channels,
				indirection, indirectionStride, input, outputStride, tc.clamp)

			kernel := cfg.GeKR
			if tc.channels < cfg.KR {
				kernel = cfg.LtKR
			}
			got := make([]uint8, len(want))
			kernel(outputPixels, tc.poolingSize, tc.channels,
				indirection, indirectionStride, input, got, outputStride, tc.clamp)
			require.Equal(t, want, got)
		})
	}
}

func TestKernelsAgree(t *testing.T) {
	// Both kernels must produce identical results where their channel ranges
	// overlap in practice (the operator picks by channel count, but the
	// contract is the same).
	rng := rand.New(rand.NewSource(7))
	cfg := Select()
	clamp := qparams.ComputeU8Clamping(0, 255)

	const outputPixels, poolingSize, channels = 5, 9, 6
	indirectionStride := poolingSize
	indirection, input := makeCase(rng, outputPixels, poolingSize, channels, indirectionStride)

	a := make([]uint8, outputPixels*channels)
	b := make([]uint8, outputPixels*channels)
	cfg.LtKR(outputPixels, poolingSize, channels, indirection, indirectionStride, input, a, channels, clamp)
	cfg.GeKR(outputPixels, poolingSize, channels, indirection, indirectionStride, input, b, channels, clamp)
	require.Equal(t, a, b)
}
