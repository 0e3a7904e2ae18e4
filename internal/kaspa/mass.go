package kaspa

// Mass limits and weights.
const (
	MaximumStandardTransactionMass uint64 = 100_000
	StorageMassParameter                  = SompiPerKaspa * 10_000

	massPerTxByte           = 1
	massPerScriptPubKeyByte = 10
	massPerSigOp            = 1000
)

// Serialized size components. An input carries a 36 byte outpoint, an
// 8 byte script length, and an 8 byte sequence around its signature script.
const (
	baseTransactionSize        = 94
	inputSizeWithoutScript     = 52
	schnorrSignatureScriptSize = 66
	outputSizeWithoutScript    = 18
	scriptVersionSize          = 2
)

// SignedInputSize is the serialized size of one Schnorr-signed P2PK input.
const SignedInputSize = inputSizeWithoutScript + schnorrSignatureScriptSize

func outputSize(out *TransactionOutput) uint64 {
	return uint64(outputSizeWithoutScript + len(out.ScriptPublicKey.Script))
}

// ComputeMass returns the size and signature-operation mass of a
// transaction with numInputs Schnorr-signed inputs and the given outputs.
func ComputeMass(numInputs int, outputs []*TransactionOutput) uint64 {
	n := uint64(numInputs)
	size := uint64(baseTransactionSize) + n*SignedInputSize
	var scriptMass uint64
	for _, out := range outputs {
		size += outputSize(out)
		scriptMass += massPerScriptPubKeyByte * uint64(scriptVersionSize+len(out.ScriptPublicKey.Script))
	}
	return size*massPerTxByte + scriptMass + n*massPerSigOp
}

// StorageMass returns the KIP-9 storage mass for the given input and output
// values. Results below zero saturate to zero.
func StorageMass(inputs, outputs []uint64) uint64 {
	if len(outputs) == 0 {
		return 0
	}

	var harmonicOuts uint64
	for _, v := range outputs {
		if v == 0 {
			return ^uint64(0)
		}
		harmonicOuts += StorageMassParameter / v
	}

	if len(outputs) == 1 || len(inputs) == 1 || (len(outputs) == 2 && len(inputs) == 2) {
		var harmonicIns uint64
		for _, v := range inputs {
			if v > 0 {
				harmonicIns += StorageMassParameter / v
			}
		}
		return saturatingSub(harmonicOuts, harmonicIns)
	}

	var sumIns uint64
	for _, v := range inputs {
		sumIns += v
	}
	mean := sumIns / uint64(len(inputs))
	if mean == 0 {
		return harmonicOuts
	}
	arithmeticIns := uint64(len(inputs)) * (StorageMassParameter / mean)
	return saturatingSub(harmonicOuts, arithmeticIns)
}

// TransactionMass is the larger of compute mass and storage mass.
func TransactionMass(inputs []uint64, outputs []*TransactionOutput) uint64 {
	values := make([]uint64, len(outputs))
	for i, out := range outputs {
		values[i] = out.Value
	}
	return max(ComputeMass(len(inputs), outputs), StorageMass(inputs, values))
}

// MaxInputsPerTransaction returns how many Schnorr-signed inputs fit under
// the standard mass ceiling alongside numOutputs standard P2PK outputs.
func MaxInputsPerTransaction(numOutputs int) int {
	outputMass := uint64(outputSizeWithoutScript+StandardOutputScriptSize) +
		massPerScriptPubKeyByte*uint64(scriptVersionSize+StandardOutputScriptSize)
	fixed := uint64(baseTransactionSize) + uint64(numOutputs)*outputMass
	if fixed >= MaximumStandardTransactionMass {
		return 0
	}
	return int((MaximumStandardTransactionMass - fixed) / (SignedInputSize + massPerSigOp))
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
