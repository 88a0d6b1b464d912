package types

// Built-in program ids.
var (
	SystemProgramID          = MustParsePubkey("11111111111111111111111111111111")
	TokenProgramID           = MustParsePubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = MustParsePubkey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	EscrowProgramID          = MustParsePubkey("677U8Q9nAyas6JaKkercgVifkcwpuZrP6RUimosfKaHZ")
	VaultProgramID           = MustParsePubkey("795ui77wZyU8cTgxHntt83v9aiAfvVvyBws8xXyhT17S")
	StakingProgramID         = MustParsePubkey("HimF6bUv7jgEV8m4XKZL5JHpgYQnYpoAPr3F6kdNXJ5V")
)

// MetadataProgramID is the NFT metadata program. It is not installed here;
// staking only derives addresses under it.
var MetadataProgramID = MustParsePubkey("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
