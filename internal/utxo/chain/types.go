// Package chain resolves transaction inputs against the outputs they spend.
package chain

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// TransactionLookup reads previously persisted transactions.
	// FindTransaction returns nil without error when the hash is unknown.
	TransactionLookup interface {
		FindTransaction(ctx context.Context, txHash string) (*model.TransactionRecord, error)
	}
)
