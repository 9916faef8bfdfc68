package relay

import (
	"encoding/base64"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/fortiblox/jito-relay/internal/types"
)

// Encoding is the text encoding of serialized transactions sent to the engine.
type Encoding string

// Supported encodings.
const (
	EncodingBase58 Encoding = "base58"
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding parses an encoding name. Empty selects base64.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingBase64:
		return EncodingBase64, nil
	case EncodingBase58:
		return EncodingBase58, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", s)
	}
}

// EncodeTransaction encodes a serialized transaction.
func EncodeTransaction(raw []byte, encoding Encoding) string {
	switch encoding {
	case EncodingBase58:
		return base58.Encode(raw)
	default:
		return base64.StdEncoding.EncodeToString(raw)
	}
}

// DecodeTransaction decodes an encoded transaction back to its wire bytes.
func DecodeTransaction(encoded string, encoding Encoding) ([]byte, error) {
	switch encoding {
	case EncodingBase58:
		return base58.Decode(encoded)
	default:
		return base64.StdEncoding.DecodeString(encoded)
	}
}

// PrimarySignature returns the fee payer signature of an encoded transaction.
// It is the identifier the ledger uses for the transaction.
func PrimarySignature(encoded string, encoding Encoding) (types.Signature, error) {
	raw, err := DecodeTransaction(encoded, encoding)
	if err != nil {
		return types.Signature{}, fmt.Errorf("decode %s transaction: %w", encoding, err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return types.Signature{}, fmt.Errorf("parse transaction: %w", err)
	}
	if len(tx.Signatures) == 0 {
		return types.Signature{}, errors.New("transaction carries no signatures")
	}
	return types.Signature(tx.Signatures[0]), nil
}
