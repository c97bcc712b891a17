package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/stake"
	"github.com/xraph/stakeledger/types"
)

func TestMigrationIndexes(t *testing.T) {
	indexes := migrationIndexes()

	require.Contains(t, indexes, colStakes)
	require.Contains(t, indexes, colEvents)
	assert.NotContains(t, indexes, colPools, "pools are looked up by _id only")
	assert.Len(t, indexes[colEvents], 3)
}

func TestStakeModelUsesAddressAsDocumentID(t *testing.T) {
	r := stake.New(id.NewPoolID(), identity.Derive([]byte("bob")))
	r.AmountStaked = types.MaxAmount

	m := toStakeModel(r)
	assert.Equal(t, r.Address.String(), m.Address)
	assert.Equal(t, "18446744073709551615", m.AmountStaked)

	got, err := fromStakeModel(m)
	require.NoError(t, err)
	assert.Equal(t, r.AmountStaked, got.AmountStaked)
}

func TestEventModel(t *testing.T) {
	e := event.New(event.KindStaked, id.NewPoolID(), identity.Derive([]byte("bob")), 25, 1_700_000_000)

	got, err := fromEventModel(toEventModel(e))
	require.NoError(t, err)
	assert.Equal(t, e.ID.String(), got.ID.String())
	assert.Equal(t, e.Identity, got.Identity)
	assert.Equal(t, e.Amount, got.Amount)
}
