package tx

import (
	"encoding/hex"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// AccountMeta names an account an instruction touches and the privileges it
// claims for it.
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Readonly returns a non-signer, non-writable meta.
func Readonly(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key}
}

// Writable returns a non-signer, writable meta.
func Writable(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key, IsWritable: true}
}

// WritableSigner returns a signer, writable meta.
func WritableSigner(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: true, IsWritable: true}
}

// Instruction is one call into a program.
type Instruction struct {
	ProgramID types.Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is an ordered list of instructions plus the identities whose
// signatures were verified before submission. Signature checking itself
// happens outside the runtime.
type Transaction struct {
	Signers      []types.Pubkey
	Instructions []Instruction
}

// NewTransaction builds a transaction from instructions and signers.
func NewTransaction(signers []types.Pubkey, instructions ...Instruction) Transaction {
	return Transaction{Signers: signers, Instructions: instructions}
}

// HasSigner reports whether key signed the transaction.
func (t Transaction) HasSigner(key types.Pubkey) bool {
	for _, s := range t.Signers {
		if s == key {
			return true
		}
	}
	return false
}

// Hash returns the sha256 of the transaction's canonical encoding.
func (t Transaction) Hash() [32]byte {
	s := binarycodec.NewBinarySerializer(256)
	s.WriteU32(uint32(len(t.Signers)))
	for _, signer := range t.Signers {
		s.WriteBytes(signer[:])
	}
	s.WriteU32(uint32(len(t.Instructions)))
	for _, ix := range t.Instructions {
		s.WriteBytes(ix.ProgramID[:])
		s.WriteU32(uint32(len(ix.Accounts)))
		for _, m := range ix.Accounts {
			s.WriteBytes(m.Pubkey[:]).WriteBool(m.IsSigner).WriteBool(m.IsWritable)
		}
		s.WriteU32(uint32(len(ix.Data))).WriteBytes(ix.Data)
	}
	return crypto.Sha256(s.GetSink())
}

// HashHex returns Hash as lowercase hex.
func (t Transaction) HashHex() string {
	h := t.Hash()
	return hex.EncodeToString(h[:])
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result

	// Applied indicates if the transaction was committed to the ledger
	Applied bool

	// Attempts is how many times the transaction was evaluated before it
	// committed or failed.
	Attempts int

	// Metadata lists the accounts a committed transaction changed.
	Metadata *Metadata

	// Message is a human-readable result message
	Message string
}

// Err returns nil when the transaction applied, otherwise the sentinel for
// its result.
func (r ApplyResult) Err() error {
	return r.Result.Err()
}
