// Package model defines domain models for UTXO ingestion.
package model

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CoinbaseSentinel is the previous-output hash carried by generation inputs.
var CoinbaseSentinel chainhash.Hash

// Block is a deserialized block as handed over by a block source.
type Block struct {
	Hash       chainhash.Hash
	Version    int32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
	Size       uint32
	Txs        []Tx
}

// Tx is a transaction whose output scripts were already evaluated.
type Tx struct {
	Hash     chainhash.Hash
	Version  int32
	LockTime uint32
	Inputs   []TxInput
	Outputs  []TxOutput
}

// TxInput references the output it spends.
type TxInput struct {
	PrevHash  chainhash.Hash
	PrevIndex uint32
	ScriptSig []byte
	Sequence  uint32
}

// IsCoinbase reports whether the input has no real previous output.
func (in TxInput) IsCoinbase() bool {
	return in.PrevHash == CoinbaseSentinel
}

// TxOutput is an output together with the evaluation of its locking script.
type TxOutput struct {
	Value        uint64
	ScriptPubKey []byte
	Script       EvaluatedScript
}

// EvaluatedScript is the result of recognizing an output script.
// Address is empty when the pattern has no single destination.
type EvaluatedScript struct {
	Pattern string
	Address string
}
