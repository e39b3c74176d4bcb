package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-profiler/internal/model"
)

const form4Sale = `<?xml version="1.0"?>
<ownershipDocument>
  <periodOfReport>2024-05-01</periodOfReport>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>COOK TIMOTHY D</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>0</isDirector>
      <isOfficer>1</isOfficer>
      <officerTitle>Chief Executive Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>2024-05-01</value></transactionDate>
      <transactionCoding><transactionCode>S</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>10000</value></transactionShares>
        <transactionPricePerShare><value>180.50</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>D</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
      <postTransactionAmounts>
        <sharesOwnedFollowingTransaction><value>3300000</value></sharesOwnedFollowingTransaction>
      </postTransactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`

const form4OptionExerciseNoCash = `<?xml version="1.0"?>
<ownershipDocument>
  <periodOfReport>2024-03-15</periodOfReport>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>SMITH JANE A</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>1</isDirector>
      <isOfficer>0</isOfficer>
    </reportingOwnerRelationship>
  </reportingOwner>
  <derivativeTable>
    <derivativeTransaction>
      <transactionDate><value>2024-03-15</value></transactionDate>
      <transactionCoding><transactionCode>M</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>5000</value></transactionShares>
        <transactionPricePerShare><value>0</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </derivativeTransaction>
  </derivativeTable>
</ownershipDocument>`

func TestParseForm4_Sale(t *testing.T) {
	a := ParseForm4([]byte(form4Sale))
	require.NotNil(t, a)

	assert.Equal(t, "Cook Timothy D", a.InsiderName)
	assert.Equal(t, "Chief Executive Officer", a.InsiderTitle)
	assert.True(t, a.IsOfficer)
	assert.False(t, a.IsDirector)

	require.Len(t, a.Transactions, 1)
	tx := a.Transactions[0]
	assert.Equal(t, model.TxSale, tx.Kind)
	assert.Equal(t, 10000.0, tx.Shares)
	assert.Equal(t, 180.50, tx.PricePerShare)
	assert.Equal(t, 3300000.0, tx.SharesOwnedAfter)

	assert.Equal(t, -10000.0, a.NetShares)
	assert.Equal(t, -1805000.0, a.NetValue)
	assert.Equal(t, model.SignalStrongBearish, a.Signal)
}

func TestParseForm4_OptionExerciseWithoutCashIsNeutral(t *testing.T) {
	a := ParseForm4([]byte(form4OptionExerciseNoCash))
	require.NotNil(t, a)

	assert.Equal(t, 5000.0, a.NetShares, "exercise counts toward shares")
	assert.Equal(t, 0.0, a.NetValue, "no cash price means no value contribution")
	assert.Equal(t, model.SignalNeutral, a.Signal)
	assert.True(t, a.IsDirector)
}

func TestParseForm4_Malformed(t *testing.T) {
	assert.Nil(t, ParseForm4([]byte("not xml at all <<<")))
	assert.Nil(t, ParseForm4([]byte("<ownershipDocument></ownershipDocument>")))
}

func TestSignalForNetValue_Bands(t *testing.T) {
	tests := []struct {
		value float64
		want  model.InsiderSignal
	}{
		{2_000_000, model.SignalStrongBullish},
		{1_000_001, model.SignalStrongBullish},
		{500_000, model.SignalBullish},
		{100_000, model.SignalNeutral},
		{0, model.SignalNeutral},
		{-100_000, model.SignalNeutral},
		{-500_000, model.SignalBearish},
		{-2_000_000, model.SignalStrongBearish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SignalForNetValue(tt.value), "net value %v", tt.value)
	}
}

func TestAggregateInsiderTrading(t *testing.T) {
	buy := ParseForm4([]byte(form4OptionExerciseNoCash))
	sell := ParseForm4([]byte(form4Sale))
	require.NotNil(t, buy)
	require.NotNil(t, sell)

	out := AggregateInsiderTrading([]model.InsiderActivity{*buy, *sell}, 2, 3)
	assert.True(t, out.Available)
	assert.Equal(t, -5000.0, out.NetShares)
	assert.Equal(t, model.SignalStrongBearish, out.OverallSignal)
	assert.NotEmpty(t, out.Warnings, "one of three documents unparseable")
}

func TestAggregateInsiderTrading_NoFilings(t *testing.T) {
	out := AggregateInsiderTrading(nil, 0, 0)
	assert.False(t, out.Available)
	assert.Equal(t, model.SignalNeutral, out.OverallSignal)
}
