package builder

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	TokenProgramID     = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	ATAProgramID       = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

// AssociatedTokenAccount derives the associated token account of wallet for
// mint under tokenProgram. Results are cached.
func AssociatedTokenAccount(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, nil
	}
	ataCacheMu.RUnlock()

	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, nil
}

// FillTokenAccounts derives any missing source or destination token account
// from the payer and mints.
func (a *SwapAccounts) FillTokenAccounts(sourceProgram, destinationProgram solana.PublicKey) error {
	if a.Payer.IsZero() {
		return ErrMissingAccount
	}
	if a.SourceTokenAccount.IsZero() && !a.SourceMint.IsZero() {
		ata, err := AssociatedTokenAccount(a.Payer, a.SourceMint, sourceProgram)
		if err != nil {
			return err
		}
		a.SourceTokenAccount = ata
	}
	if a.DestinationTokenAccount.IsZero() && !a.DestinationMint.IsZero() {
		ata, err := AssociatedTokenAccount(a.Payer, a.DestinationMint, destinationProgram)
		if err != nil {
			return err
		}
		a.DestinationTokenAccount = ata
	}
	return nil
}
