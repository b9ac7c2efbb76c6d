package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// OutputKey identifies one output within the whole chain.
type OutputKey struct {
	TxHash chainhash.Hash
	Index  uint32
}

// OutputRecord is the minimal resolved shape of an output.
type OutputRecord struct {
	Value   uint64
	Address string
}

// BlockRecord is the persisted shape of a block header.
type BlockRecord struct {
	Hash         string `json:"hash"`
	Height       uint64 `json:"blockHeight"`
	Version      int32  `json:"version"`
	Size         uint32 `json:"size"`
	PreviousHash string `json:"previousHash"`
	MerkleRoot   string `json:"merkleRootHash"`
	Timestamp    uint32 `json:"timestamp"`
	Bits         uint32 `json:"nBits"`
	TxCount      uint32 `json:"txCount"`
	Nonce        uint32 `json:"nNonce"`
}

// TransactionRecord is the persisted shape of a transaction with annotated inputs.
type TransactionRecord struct {
	TxHash    string              `json:"txHash"`
	BlockHash string              `json:"blockHash"`
	Version   int32               `json:"version"`
	LockTime  uint32              `json:"lockTime"`
	Inputs    []TransactionInput  `json:"txInputs"`
	Outputs   []TransactionOutput `json:"txOutputs"`
}

// InputCount returns the number of inputs.
func (t TransactionRecord) InputCount() uint32 {
	return uint32(len(t.Inputs))
}

// OutputCount returns the number of outputs.
func (t TransactionRecord) OutputCount() uint32 {
	return uint32(len(t.Outputs))
}

// Output returns the output record stored at index.
func (t TransactionRecord) Output(index uint32) (OutputRecord, bool) {
	if uint64(index) >= uint64(len(t.Outputs)) {
		return OutputRecord{}, false
	}
	out := t.Outputs[index]
	return OutputRecord{Value: out.Value, Address: out.Address}, true
}

// TransactionInput is an input annotated with the value and address it spends.
type TransactionInput struct {
	TxHash       string `json:"txHash"`
	HashPrevOut  string `json:"hashPrevOut"`
	IndexPrevOut uint32 `json:"indexPrevOut"`
	IndexIn      uint32 `json:"indexIn"`
	ScriptSig    string `json:"scriptSig"`
	Sequence     uint32 `json:"sequenceNumber"`
	Value        uint64 `json:"value"`
	Address      string `json:"address"`
}

// TransactionOutput is an output as persisted with its transaction.
type TransactionOutput struct {
	TxHash       string `json:"txHash"`
	IndexOut     uint32 `json:"indexOut"`
	Value        uint64 `json:"value"`
	ScriptPubKey string `json:"scriptPubKey"`
	Address      string `json:"address"`
}
