package mongo

import "github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"

type blockDocument struct {
	Hash         string `bson:"hash"`
	Height       uint64 `bson:"blockHeight"`
	Version      int32  `bson:"version"`
	Size         uint32 `bson:"size"`
	PreviousHash string `bson:"previousHash"`
	MerkleRoot   string `bson:"merkleRootHash"`
	Timestamp    uint32 `bson:"timestamp"`
	Bits         uint32 `bson:"nBits"`
	TxCount      uint32 `bson:"txCount"`
	Nonce        uint32 `bson:"nNonce"`
}

type transactionDocument struct {
	TxHash      string           `bson:"txHash"`
	BlockHash   string           `bson:"blockHash"`
	Version     int32            `bson:"version"`
	LockTime    uint32           `bson:"lockTime"`
	InputCount  uint32           `bson:"inputCount"`
	Inputs      []inputDocument  `bson:"txInputs"`
	OutputCount uint32           `bson:"outputCount"`
	Outputs     []outputDocument `bson:"txOutputs"`
}

type inputDocument struct {
	TxHash       string `bson:"txHash"`
	HashPrevOut  string `bson:"hashPrevOut"`
	IndexPrevOut uint32 `bson:"indexPrevOut"`
	IndexIn      uint32 `bson:"indexIn"`
	ScriptSig    string `bson:"scriptSig"`
	Sequence     uint32 `bson:"sequenceNumber"`
	Value        uint64 `bson:"value"`
	Address      string `bson:"address"`
}

type outputDocument struct {
	TxHash       string `bson:"txHash"`
	IndexOut     uint32 `bson:"indexOut"`
	Value        uint64 `bson:"value"`
	ScriptPubKey string `bson:"scriptPubKey"`
	Address      string `bson:"address"`
}

func newBlockDocument(b model.BlockRecord) blockDocument {
	return blockDocument{
		Hash:         b.Hash,
		Height:       b.Height,
		Version:      b.Version,
		Size:         b.Size,
		PreviousHash: b.PreviousHash,
		MerkleRoot:   b.MerkleRoot,
		Timestamp:    b.Timestamp,
		Bits:         b.Bits,
		TxCount:      b.TxCount,
		Nonce:        b.Nonce,
	}
}

func newTransactionDocument(tx model.TransactionRecord) transactionDocument {
	doc := transactionDocument{
		TxHash:      tx.TxHash,
		BlockHash:   tx.BlockHash,
		Version:     tx.Version,
		LockTime:    tx.LockTime,
		InputCount:  tx.InputCount(),
		Inputs:      make([]inputDocument, 0, len(tx.Inputs)),
		OutputCount: tx.OutputCount(),
		Outputs:     make([]outputDocument, 0, len(tx.Outputs)),
	}
	for _, in := range tx.Inputs {
		doc.Inputs = append(doc.Inputs, inputDocument(in))
	}
	for _, out := range tx.Outputs {
		doc.Outputs = append(doc.Outputs, outputDocument(out))
	}
	return doc
}

func (d transactionDocument) record() *model.TransactionRecord {
	tx := &model.TransactionRecord{
		TxHash:    d.TxHash,
		BlockHash: d.BlockHash,
		Version:   d.Version,
		LockTime:  d.LockTime,
	}
	if len(d.Inputs) > 0 {
		tx.Inputs = make([]model.TransactionInput, 0, len(d.Inputs))
		for _, in := range d.Inputs {
			tx.Inputs = append(tx.Inputs, model.TransactionInput(in))
		}
	}
	if len(d.Outputs) > 0 {
		tx.Outputs = make([]model.TransactionOutput, 0, len(d.Outputs))
		for _, out := range d.Outputs {
			tx.Outputs = append(tx.Outputs, model.TransactionOutput(out))
		}
	}
	return tx
}
