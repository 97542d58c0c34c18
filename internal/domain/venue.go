package domain

import (
	"fmt"
	"strings"
)

// Venue identifies the swap mechanism that executes one hop split. The set is
// closed: a new mechanism gets a new tag and a new adapter, never a reused tag.
// Tag values are the wire discriminants and must not be reordered.
type Venue uint8

const (
	VenueSplTokenSwap Venue = iota
	VenueStableSwap
	VenueWhirlpool
	VenueMeteoraDynamicpool
	VenueRaydiumSwap
	VenueRaydiumStableSwap
	VenueRaydiumClmmSwap
	VenueAldrinExchangeV1
	VenueAldrinExchangeV2
	VenueLifinityV1
	VenueLifinityV2
	VenueRaydiumClmmSwapV2
	VenueFluxBeam
	VenueMeteoraDlmm
	VenueRaydiumCpmmSwap
	VenueOpenBookV2
	VenueWhirlpoolV2
	VenuePhoenix
	VenueObricV2
	VenueSanctumAddLiq
	VenueSanctumRemoveLiq
	VenueSanctumNonWsolSwap
	VenueSanctumWsolSwap
	VenuePumpfunBuy
	VenuePumpfunSell
	VenueStabbleSwap
	VenueSanctumRouter
	VenueMeteoraVaultDeposit
	VenueMeteoraVaultWithdraw
	VenueSaros
	VenueMeteoraLst
	VenueSolfi
	VenueQualiaSwap
	VenueZerofi
	VenuePumpfunammBuy
	VenuePumpfunammSell
	VenueVirtuals
	VenueVertigoBuy
	VenueVertigoSell
	VenuePerpetualsAddLiq
	VenuePerpetualsRemoveLiq
	VenuePerpetualsSwap
	VenueRaydiumLaunchpad
	VenueLetsBonkFun
	VenueWoofi
	VenueMeteoraDbc
	VenueMeteoraDlmmSwap2
	VenueMeteoraDAMMV2
	VenueGavel
	VenueBoopfunBuy
	VenueBoopfunSell
	VenueMeteoraDbc2
	VenueGooseFX
	VenueDooar
	VenueNumeraire
	VenueSaberDecimalWrapperDeposit
	VenueSaberDecimalWrapperWithdraw
	VenueSarosDlmm
	VenueOneDexSwap
	VenueManifest
	VenueByrealClmm
	VenuePancakeSwapV3Swap
	VenuePancakeSwapV3SwapV2
	VenueTessera
	VenueSolRfq
	VenuePumpfunBuy2
	VenuePumpfunammBuy2
	VenueHumidifi
	VenueHeavenBuy
	VenueHeavenSell
	VenueSolfiV2
	VenuePumpfunBuy3
	VenuePumpfunSell3
	VenuePumpfunammBuy3
	VenuePumpfunammSell3
	VenueGoonfi
	VenueMoonitBuy
	VenueMoonitSell
	VenueRaydiumSwapV2
	VenueSwaap
	VenueSugarMoneyBuy
	VenueSugarMoneySell
	VenueMeteoraDAMMV2Swap2

	venueCount
)

var venueNames = [venueCount]string{
	"SplTokenSwap",
	"StableSwap",
	"Whirlpool",
	"MeteoraDynamicpool",
	"RaydiumSwap",
	"RaydiumStableSwap",
	"RaydiumClmmSwap",
	"AldrinExchangeV1",
	"AldrinExchangeV2",
	"LifinityV1",
	"LifinityV2",
	"RaydiumClmmSwapV2",
	"FluxBeam",
	"MeteoraDlmm",
	"RaydiumCpmmSwap",
	"OpenBookV2",
	"WhirlpoolV2",
	"Phoenix",
	"ObricV2",
	"SanctumAddLiq",
	"SanctumRemoveLiq",
	"SanctumNonWsolSwap",
	"SanctumWsolSwap",
	"PumpfunBuy",
	"PumpfunSell",
	"StabbleSwap",
	"SanctumRouter",
	"MeteoraVaultDeposit",
	"MeteoraVaultWithdraw",
	"Saros",
	"MeteoraLst",
	"Solfi",
	"QualiaSwap",
	"Zerofi",
	"PumpfunammBuy",
	"PumpfunammSell",
	"Virtuals",
	"VertigoBuy",
	"VertigoSell",
	"PerpetualsAddLiq",
	"PerpetualsRemoveLiq",
	"PerpetualsSwap",
	"RaydiumLaunchpad",
	"LetsBonkFun",
	"Woofi",
	"MeteoraDbc",
	"MeteoraDlmmSwap2",
	"MeteoraDAMMV2",
	"Gavel",
	"BoopfunBuy",
	"BoopfunSell",
	"MeteoraDbc2",
	"GooseFX",
	"Dooar",
	"Numeraire",
	"SaberDecimalWrapperDeposit",
	"SaberDecimalWrapperWithdraw",
	"SarosDlmm",
	"OneDexSwap",
	"Manifest",
	"ByrealClmm",
	"PancakeSwapV3Swap",
	"PancakeSwapV3SwapV2",
	"Tessera",
	"SolRfq",
	"PumpfunBuy2",
	"PumpfunammBuy2",
	"Humidifi",
	"HeavenBuy",
	"HeavenSell",
	"SolfiV2",
	"PumpfunBuy3",
	"PumpfunSell3",
	"PumpfunammBuy3",
	"PumpfunammSell3",
	"Goonfi",
	"MoonitBuy",
	"MoonitSell",
	"RaydiumSwapV2",
	"Swaap",
	"SugarMoneyBuy",
	"SugarMoneySell",
	"MeteoraDAMMV2Swap2",
}

var venuesByName = func() map[string]Venue {
	m := make(map[string]Venue, venueCount)
	for i, name := range venueNames {
		m[strings.ToLower(name)] = Venue(i)
	}
	return m
}()

// VenueCount is the number of supported venue tags.
const VenueCount = int(venueCount)

func (v Venue) IsValid() bool {
	return v < venueCount
}

func (v Venue) String() string {
	if !v.IsValid() {
		return fmt.Sprintf("UNKNOWN(%d)", uint8(v))
	}
	return venueNames[v]
}

// ParseVenue resolves a venue by its case-insensitive name.
func ParseVenue(name string) (Venue, error) {
	v, ok := venuesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown venue: %q", name)
	}
	return v, nil
}

// AllVenues returns every supported venue in tag order.
func AllVenues() []Venue {
	out := make([]Venue, venueCount)
	for i := range out {
		out[i] = Venue(i)
	}
	return out
}

func (v Venue) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("invalid venue tag: %d", uint8(v))
	}
	return []byte(v.String()), nil
}

func (v *Venue) UnmarshalText(text []byte) error {
	parsed, err := ParseVenue(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
