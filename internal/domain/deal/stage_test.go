package deal

import (
	"encoding/json"
	"testing"

	"marketplace-service/internal/domain/shared"
	xerrors "marketplace-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStages(t *testing.T) {
	assert.Equal(t, []Stage{StageNegotiatingTerms}, StageSellerContacted.NextStages())
	assert.Equal(t, []Stage{StageAgreementReached, StageClosedWon, StageClosedLost}, StageNegotiatingTerms.NextStages())
	assert.Equal(t, []Stage{StageClosedWon, StageClosedLost}, StageAgreementReached.NextStages())
	assert.Empty(t, StageClosedWon.NextStages())
	assert.Empty(t, StageClosedLost.NextStages())
	assert.Empty(t, Stage("Prospecting").NextStages())
}

func TestNextStagesReturnsCopy(t *testing.T) {
	next := StageAgreementReached.NextStages()
	next[0] = StageSellerContacted
	assert.Equal(t, StageClosedWon, StageAgreementReached.NextStages()[0])
}

func TestCanUpdate(t *testing.T) {
	for _, s := range []Stage{StageSellerContacted, StageNegotiatingTerms, StageAgreementReached} {
		assert.True(t, s.CanUpdate(), s)
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range []Stage{StageClosedWon, StageClosedLost} {
		assert.False(t, s.CanUpdate(), s)
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, Stage("").CanUpdate())
}

func TestValidateTransition(t *testing.T) {
	t.Run("every listed edge is legal", func(t *testing.T) {
		for _, from := range Stages() {
			for _, to := range from.NextStages() {
				assert.NoError(t, ValidateTransition(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("skipping ahead", func(t *testing.T) {
		err := ValidateTransition(StageSellerContacted, StageAgreementReached)
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidTransition))
	})

	t.Run("backwards", func(t *testing.T) {
		err := ValidateTransition(StageAgreementReached, StageNegotiatingTerms)
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidTransition))
	})

	t.Run("out of terminal", func(t *testing.T) {
		err := ValidateTransition(StageClosedWon, StageClosedLost)
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidTransition))
	})

	t.Run("unknown target", func(t *testing.T) {
		err := ValidateTransition(StageSellerContacted, "Won Big")
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	})
}

func TestParseStage(t *testing.T) {
	for _, want := range Stages() {
		got, err := ParseStage(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseStage("Won Big")
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	msg, ok := xerrors.ClientMessage(err)
	require.True(t, ok)
	assert.Contains(t, msg, `"Won Big"`)
	assert.Contains(t, msg, "Seller Contacted, Negotiating Terms, Agreement Reached, Closed Won, Closed Lost")
}

func TestCreateDealRequestStartsInInitialStage(t *testing.T) {
	req := CreateDealRequest{BuyerAccountID: "a1", Name: "Bolts", SellerID: "v1"}

	out, err := json.Marshal(req.ToRecord())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Account_Name":{"id":"a1"},
		"Deal_Name":"Bolts",
		"Vendor_Name":{"id":"v1"},
		"Stage":"Seller Contacted",
		"Quantity":0
	}`, string(out))
}

func TestUpdateDealRequestValidate(t *testing.T) {
	stage := string(StageNegotiatingTerms)
	qty := shared.NumberFromInt(10)
	neg := shared.NumberFromInt(-1)
	frac := shared.NumberFromFloat(1.5)

	assert.NoError(t, (&UpdateDealRequest{Stage: &stage}).Validate())
	assert.NoError(t, (&UpdateDealRequest{Quantity: &qty}).Validate())
	assert.Error(t, (&UpdateDealRequest{Stage: &stage, Quantity: &qty}).Validate())
	assert.Error(t, (&UpdateDealRequest{}).Validate())
	assert.Error(t, (&UpdateDealRequest{Quantity: &neg}).Validate())
	assert.Error(t, (&UpdateDealRequest{Quantity: &frac}).Validate())
}

func TestFeedbackRequestRecord(t *testing.T) {
	req := FeedbackRequest{DealID: "d1", VendorID: "v1", Rating: 4, Comments: "on time"}

	out, err := json.Marshal(req.Record())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"d1","Buyer_Rating":"4","Buyer_Comment":"on time"}`, string(out))
}
