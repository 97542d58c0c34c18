package builder

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/route-executor/internal/codec"
	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/services/market"
)

var (
	// RouterProgramID is the mainnet router program.
	RouterProgramID = solana.MustPublicKeyFromBase58("6m2CDdhRgxpH4WjvdzxAYbGxwdGUz5MziiL5jek2kBma")

	swapDiscriminator = bin.SighashInstruction("swap")
)

var ErrMissingAccount = errors.New("missing swap account")

// SwapAccounts are the fixed leading accounts of the swap instruction.
type SwapAccounts struct {
	Payer                   solana.PublicKey `json:"payer"`
	SourceTokenAccount      solana.PublicKey `json:"sourceTokenAccount"`
	DestinationTokenAccount solana.PublicKey `json:"destinationTokenAccount"`
	SourceMint              solana.PublicKey `json:"sourceMint"`
	DestinationMint         solana.PublicKey `json:"destinationMint"`
}

func (a *SwapAccounts) metas() (solana.AccountMetaSlice, error) {
	named := []struct {
		name string
		key  solana.PublicKey
	}{
		{"payer", a.Payer},
		{"sourceTokenAccount", a.SourceTokenAccount},
		{"destinationTokenAccount", a.DestinationTokenAccount},
		{"sourceMint", a.SourceMint},
		{"destinationMint", a.DestinationMint},
	}
	for _, n := range named {
		if n.key.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrMissingAccount, n.name)
		}
	}
	return solana.AccountMetaSlice{
		{PublicKey: a.Payer, IsSigner: true, IsWritable: true},
		{PublicKey: a.SourceTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: a.DestinationTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: a.SourceMint, IsSigner: false, IsWritable: false},
		{PublicKey: a.DestinationMint, IsSigner: false, IsWritable: false},
	}, nil
}

// SwapInstructionData is the discriminator followed by the encoded request.
func SwapInstructionData(req *domain.SwapRequest) ([]byte, error) {
	args, err := codec.EncodeSwapRequest(req)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(swapDiscriminator)+len(args))
	data = append(data, swapDiscriminator...)
	return append(data, args...), nil
}

// BuildSwapInstruction assembles the router swap instruction. The step
// contexts are appended as remaining accounts in route, hop, split order,
// zero-weight splits included, which is the order the program consumes them.
func BuildSwapInstruction(
	programID solana.PublicKey,
	accounts *SwapAccounts,
	req *domain.SwapRequest,
	resolver market.ContextResolver,
) (solana.Instruction, error) {
	metas, err := accounts.metas()
	if err != nil {
		return nil, err
	}

	for r, route := range req.Spec.Routes {
		for h, hop := range route.Hops {
			for i, venue := range hop.Venues {
				ec, err := resolver.Resolve(domain.StepKey{Route: r, Hop: h, Index: i, Venue: venue})
				if err != nil {
					return nil, err
				}
				metas = append(metas, ec.Accounts...)
			}
		}
	}

	data, err := SwapInstructionData(req)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, metas, data), nil
}
