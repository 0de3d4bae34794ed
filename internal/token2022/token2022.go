// Package token2022 decodes the transfer-fee extension of Token-2022 mints
// and exposes it as an epoch-aware fee schedule for the pricing core.
package token2022

import (
	"encoding/binary"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

const (
	// the base mint layout is zero-padded to the token account size before
	// the account-type byte and the TLV entries begin
	accountTypeOffset    = 165
	accountTypeMint      = 1
	extensionTransferFee = 1

	// fee basis points are over 10_000
	basisPointDenominator = 10_000
)

var (
	ErrNotAMint       = errors.New("account is not a token-2022 mint")
	ErrTruncatedData  = errors.New("mint account data truncated")
	ErrMalformedEntry = errors.New("malformed extension entry")
)

// TransferFee is one epoch's fee rule: a basis-point rate capped by an
// absolute maximum.
type TransferFee struct {
	Epoch       uint64
	MaximumFee  uint64
	BasisPoints uint16
}

// TransferFeeConfig is the decoded transfer-fee extension of a mint. It
// carries two fee rules because fee changes are staged one epoch ahead:
// NewerTransferFee applies from its epoch onward, OlderTransferFee before.
type TransferFeeConfig struct {
	TransferFeeConfigAuthority *solana.PublicKey
	WithdrawWithheldAuthority  *solana.PublicKey
	WithheldAmount             uint64
	OlderTransferFee           TransferFee
	NewerTransferFee           TransferFee
}

// EpochFee returns the fee rule active at the given epoch.
func (c *TransferFeeConfig) EpochFee(epoch uint64) TransferFee {
	if epoch >= c.NewerTransferFee.Epoch {
		return c.NewerTransferFee
	}
	return c.OlderTransferFee
}

// CalculateEpochFee implements the pricing core's TransferFeeSchedule: the
// fee for moving preFeeAmount at the given epoch, rounded up (the token
// program withholds in its own favor) and capped at the rule's MaximumFee.
func (c *TransferFeeConfig) CalculateEpochFee(epoch uint64, preFeeAmount uint64) (uint64, bool) {
	tf := c.EpochFee(epoch)
	if tf.BasisPoints == 0 || preFeeAmount == 0 {
		return 0, true
	}

	fee := new(uint256.Int).Mul(
		uint256.NewInt(preFeeAmount),
		uint256.NewInt(uint64(tf.BasisPoints)),
	)
	fee.AddUint64(fee, basisPointDenominator-1)
	fee.Div(fee, uint256.NewInt(basisPointDenominator))

	if !fee.IsUint64() || fee.Uint64() > tf.MaximumFee {
		return tf.MaximumFee, true
	}
	return fee.Uint64(), true
}

// ParseTransferFeeConfig walks the TLV extension area of a Token-2022 mint
// account and decodes its transfer-fee extension. It returns (nil, nil) for
// mints that simply do not carry one, which callers treat as a zero-fee
// schedule.
func ParseTransferFeeConfig(data []byte) (*TransferFeeConfig, error) {
	if len(data) <= accountTypeOffset {
		// classic-size mint, no extension area at all
		return nil, nil
	}
	if data[accountTypeOffset] != accountTypeMint {
		return nil, ErrNotAMint
	}

	buf := data[accountTypeOffset+1:]
	for len(buf) >= 4 {
		extType := binary.LittleEndian.Uint16(buf[0:2])
		extLen := int(binary.LittleEndian.Uint16(buf[2:4]))
		buf = buf[4:]
		if len(buf) < extLen {
			return nil, ErrTruncatedData
		}
		if extType == extensionTransferFee {
			return decodeTransferFeeConfig(buf[:extLen])
		}
		buf = buf[extLen:]
	}
	return nil, nil
}

func decodeTransferFeeConfig(buf []byte) (*TransferFeeConfig, error) {
	cfg := &TransferFeeConfig{}

	auth, n, err := parseOptionalPubkey(buf)
	if err != nil {
		return nil, err
	}
	cfg.TransferFeeConfigAuthority = auth
	buf = buf[n:]

	withdrawAuth, n, err := parseOptionalPubkey(buf)
	if err != nil {
		return nil, err
	}
	cfg.WithdrawWithheldAuthority = withdrawAuth
	buf = buf[n:]

	if len(buf) < 8+18+18 {
		return nil, ErrMalformedEntry
	}
	cfg.WithheldAmount = binary.LittleEndian.Uint64(buf[:8])
	buf = buf[8:]

	cfg.OlderTransferFee, buf = decodeTransferFee(buf)
	cfg.NewerTransferFee, _ = decodeTransferFee(buf)
	return cfg, nil
}

func decodeTransferFee(buf []byte) (TransferFee, []byte) {
	tf := TransferFee{
		Epoch:       binary.LittleEndian.Uint64(buf[0:8]),
		MaximumFee:  binary.LittleEndian.Uint64(buf[8:16]),
		BasisPoints: binary.LittleEndian.Uint16(buf[16:18]),
	}
	return tf, buf[18:]
}

// parseOptionalPubkey decodes the POD form of Option<Pubkey> used inside
// extensions: an all-zero key means None. 32 bytes either way.
func parseOptionalPubkey(buf []byte) (*solana.PublicKey, int, error) {
	if len(buf) < 32 {
		return nil, 0, ErrMalformedEntry
	}
	key := solana.PublicKeyFromBytes(buf[:32])
	if key.IsZero() {
		return nil, 32, nil
	}
	return &key, 32, nil
}
