package bitcoin

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

// ScriptEvaluator recognizes output scripts and derives their destination address.
type ScriptEvaluator struct {
	params *chaincfg.Params
}

// NewScriptEvaluator builds an evaluator encoding addresses for network.
func NewScriptEvaluator(network model.Network) (*ScriptEvaluator, error) {
	params, err := chainParamsForNetwork(network)
	if err != nil {
		return nil, err
	}
	return &ScriptEvaluator{params: params}, nil
}

// Evaluate classifies pkScript. Only scripts paying a single destination yield an
// address; bare multisig, null data and nonstandard scripts leave it empty.
func (e *ScriptEvaluator) Evaluate(pkScript []byte) model.EvaluatedScript {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, e.params)
	if err != nil {
		return model.EvaluatedScript{Pattern: txscript.NonStandardTy.String()}
	}

	script := model.EvaluatedScript{Pattern: class.String()}
	if class != txscript.MultiSigTy && len(addrs) == 1 {
		script.Address = addrs[0].EncodeAddress()
	}
	return script
}

func chainParamsForNetwork(network model.Network) (*chaincfg.Params, error) {
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}
