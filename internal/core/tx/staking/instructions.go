package staking

import (
	"fmt"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Instruction discriminators.
var (
	InitConfigDiscriminator = crypto.Discriminator("global", "init_config")
	InitUserDiscriminator   = crypto.Discriminator("global", "init_user")
	StakeDiscriminator      = crypto.Discriminator("global", "stake")
	UnstakeDiscriminator    = crypto.Discriminator("global", "unstake")
	SetPausedDiscriminator  = crypto.Discriminator("global", "set_paused")
)

var (
	initConfigRoles = []tx.AccountRole{
		tx.RoleWritableSigner, // authority
		tx.RoleWritable,       // stake_config
		tx.RoleReadonly,       // reward_mint
		tx.RoleReadonly,       // collection
		tx.RoleReadonly,       // system_program
	}
	initUserRoles = []tx.AccountRole{
		tx.RoleWritableSigner, // user
		tx.RoleWritable,       // user_account
		tx.RoleReadonly,       // system_program
	}
	setPausedRoles = []tx.AccountRole{
		tx.RoleReadonlySigner, // authority
		tx.RoleWritable,       // stake_config
	}
	// stake and unstake share one account list.
	stakeRoles = []tx.AccountRole{
		tx.RoleWritableSigner, // user
		tx.RoleWritable,       // user_account
		tx.RoleWritable,       // stake_config
		tx.RoleWritable,       // stake_account
		tx.RoleReadonly,       // nft_mint
		tx.RoleWritable,       // nft_token_account
		tx.RoleReadonly,       // metadata
		tx.RoleReadonly,       // master_edition
		tx.RoleReadonly,       // system_program
		tx.RoleReadonly,       // token_program
		tx.RoleReadonly,       // associated_token_program
		tx.RoleReadonly,       // metadata_program
	}
)

func mustAddress(k keylet.Keylet, err error) types.Pubkey {
	if err != nil {
		panic(err)
	}
	return k.Address
}

func metas(keys []types.Pubkey, roles []tx.AccountRole) []tx.AccountMeta {
	out := make([]tx.AccountMeta, len(keys))
	for i, k := range keys {
		out[i] = tx.AccountMeta{Pubkey: k, IsSigner: roles[i].Signer, IsWritable: roles[i].Writable}
	}
	return out
}

func discData(d [8]byte) []byte {
	return append([]byte(nil), d[:]...)
}

// InitConfig creates the staking config with authority as its admin.
// Stakers earn rewardRate points per full day staked.
func InitConfig(authority, rewardMint, collection types.Pubkey, rewardRate uint64) tx.Instruction {
	keys := []types.Pubkey{
		authority,
		mustAddress(keylet.StakeConfig()),
		rewardMint,
		collection,
		types.SystemProgramID,
	}
	return tx.Instruction{
		ProgramID: types.StakingProgramID,
		Accounts:  metas(keys, initConfigRoles),
		Data: binarycodec.NewBinarySerializer(16).
			WriteDiscriminator(InitConfigDiscriminator).
			WriteU64(rewardRate).
			GetSink(),
	}
}

// InitUser creates user's staking account.
func InitUser(user types.Pubkey) tx.Instruction {
	keys := []types.Pubkey{user, mustAddress(keylet.StakeUser(user)), types.SystemProgramID}
	return tx.Instruction{
		ProgramID: types.StakingProgramID,
		Accounts:  metas(keys, initUserRoles),
		Data:      discData(InitUserDiscriminator),
	}
}

// SetPaused stops or resumes new stakes. Only the config authority may
// call it.
func SetPaused(authority types.Pubkey, paused bool) tx.Instruction {
	keys := []types.Pubkey{authority, mustAddress(keylet.StakeConfig())}
	return tx.Instruction{
		ProgramID: types.StakingProgramID,
		Accounts:  metas(keys, setPausedRoles),
		Data: binarycodec.NewBinarySerializer(9).
			WriteDiscriminator(SetPausedDiscriminator).
			WriteBool(paused).
			GetSink(),
	}
}

func stakeAccounts(user, mint types.Pubkey) []tx.AccountMeta {
	keys := []types.Pubkey{
		user,
		mustAddress(keylet.StakeUser(user)),
		mustAddress(keylet.StakeConfig()),
		mustAddress(keylet.StakeAccount(mint)),
		mint,
		mustAddress(keylet.AssociatedToken(user, mint)),
		mustAddress(keylet.Metadata(mint)),
		mustAddress(keylet.MasterEdition(mint)),
		types.SystemProgramID,
		types.TokenProgramID,
		types.AssociatedTokenProgramID,
		types.MetadataProgramID,
	}
	return metas(keys, stakeRoles)
}

// Stake stakes the NFT of mint held by user.
func Stake(user, mint types.Pubkey) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.StakingProgramID,
		Accounts:  stakeAccounts(user, mint),
		Data:      discData(StakeDiscriminator),
	}
}

// Unstake releases the NFT of mint and credits the points it earned.
func Unstake(user, mint types.Pubkey) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.StakingProgramID,
		Accounts:  stakeAccounts(user, mint),
		Data:      discData(UnstakeDiscriminator),
	}
}

// decoded is a parsed staking instruction.
type decoded struct {
	disc       [8]byte
	rewardRate uint64
	paused     bool
}

func decode(data []byte) (decoded, error) {
	p := binarycodec.NewBinaryParser(data)
	disc, err := p.ReadDiscriminator()
	if err != nil {
		return decoded{}, err
	}
	d := decoded{disc: disc}
	switch disc {
	case InitConfigDiscriminator:
		if d.rewardRate, err = p.ReadU64(); err != nil {
			return decoded{}, err
		}
	case SetPausedDiscriminator:
		if d.paused, err = p.ReadBool(); err != nil {
			return decoded{}, err
		}
	case InitUserDiscriminator, StakeDiscriminator, UnstakeDiscriminator:
	default:
		return decoded{}, fmt.Errorf("unknown staking instruction %x", disc)
	}
	if p.HasMore() {
		return decoded{}, fmt.Errorf("%d trailing bytes", p.Remaining())
	}
	return d, nil
}
