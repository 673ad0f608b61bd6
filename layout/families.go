package layout

// Family identifies a base circuit family whose proofs a wrapper aggregates.
type Family string

const (
	DKGPk                               Family = "dkg/pk"
	DKGShareComputation                 Family = "dkg/share_computation"
	DKGShareEncryption                  Family = "dkg/share_encryption"
	DKGShareDecryption                  Family = "dkg/share_decryption"
	ThresholdPkGeneration               Family = "threshold/pk_generation"
	ThresholdPkAggregation              Family = "threshold/pk_aggregation"
	ThresholdShareDecryption            Family = "threshold/share_decryption"
	ThresholdDecryptedSharesAggregation Family = "threshold/decrypted_shares_aggregation"
	ThresholdUserDataEncryption         Family = "threshold/user_data_encryption"
)

// Base circuit names. Uniform families have a single base circuit shared by
// every slot, user data encryption has one per ciphertext component.
const (
	BaseCircuit = "base"
	Ct0Circuit  = "ct0"
	Ct1Circuit  = "ct1"
)

// Named public outputs of the user data encryption base circuits.
const (
	FieldPkCommitment = "pk_commitment"
	FieldCtCommitment = "ct_commitment"
	FieldUCommitment  = "u_commitment"
	FieldK1Commitment = "k1_commitment"
)

// UserDataEncryptionProofs is the fixed number of proofs (ct0, ct1) wrapped by
// the user data encryption family.
const UserDataEncryptionProofs = 2

var families = []Family{
	DKGPk,
	DKGShareComputation,
	DKGShareEncryption,
	DKGShareDecryption,
	ThresholdPkGeneration,
	ThresholdPkAggregation,
	ThresholdShareDecryption,
	ThresholdDecryptedSharesAggregation,
	ThresholdUserDataEncryption,
}

// Families returns every known family in a stable order.
func Families() []Family {
	return append([]Family(nil), families...)
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	for _, known := range families {
		if f == known {
			return true
		}
	}
	return false
}

func (f Family) String() string {
	return string(f)
}

// widths holds the closed form of the public input count of every uniform
// family.
var widths = map[Family]func(r *reader) uint64{
	DKGPk: func(*reader) uint64 {
		return 1
	},
	// L_THRESHOLD * N_PARTIES + 1
	DKGShareComputation: func(r *reader) uint64 {
		return r.add(r.mul(r.positive(LThreshold), r.positive(NParties)), 1)
	},
	// 2*L*N + 2
	DKGShareEncryption: func(r *reader) uint64 {
		return r.add(r.mul(2, r.mul(r.positive(L), r.positive(N))), 2)
	},
	// H*L_THRESHOLD + 1
	DKGShareDecryption: func(r *reader) uint64 {
		return r.add(r.mul(r.positive(H), r.positive(LThreshold)), 1)
	},
	// L*N + 3
	ThresholdPkGeneration: func(r *reader) uint64 {
		return r.add(r.mul(r.positive(L), r.positive(N)), 3)
	},
	// H + 1
	ThresholdPkAggregation: func(r *reader) uint64 {
		return r.add(r.positive(H), 1)
	},
	// 2 + 3*L*N
	ThresholdShareDecryption: func(r *reader) uint64 {
		return r.add(2, r.mul(3, r.mul(r.positive(L), r.positive(N))))
	},
	// (T+1)*L*MAX_MSG_NON_ZERO_COEFFS + (T+1+MAX_MSG_NON_ZERO_COEFFS)
	ThresholdDecryptedSharesAggregation: func(r *reader) uint64 {
		t1 := r.add(r.get(T), 1)
		m := r.positive(MaxMsgNonZeroCoeffs)
		return r.add(r.mul(r.mul(t1, r.positive(L)), m), r.add(t1, m))
	},
}

// userDataEncryptionSlots returns the asymmetric ct0/ct1 layout.
func userDataEncryptionSlots() []Slot {
	return []Slot{
		{
			Circuit: Ct0Circuit,
			Width:   4,
			Fields: map[string]int{
				FieldPkCommitment: 0,
				FieldCtCommitment: 1,
				FieldUCommitment:  2,
				FieldK1Commitment: 3,
			},
		},
		{
			Circuit: Ct1Circuit,
			Width:   3,
			Fields: map[string]int{
				FieldPkCommitment: 0,
				FieldCtCommitment: 1,
				FieldUCommitment:  2,
			},
		},
	}
}
