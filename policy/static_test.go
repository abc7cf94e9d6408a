package policy

import (
	"testing"
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/peterldowns/testy/assert"
)

func newTestPosition(side shared.Side, entry float64, tp *float64, sl *float64) *shared.Position {
	return &shared.Position{
		ID:         "test-position",
		Symbol:     "BTCUSDT",
		Side:       side,
		Qty:        1,
		EntryPrice: entry,
		TPPrice:    tp,
		SLPrice:    sl,
		Status:     shared.StatusOpen,
		CreatedOn:  time.Now().UTC(),
	}
}

func evalAt(p *StaticTPSL, pos *shared.Position, price float64) []shared.ExitAction {
	return p.Evaluate(pos, shared.ExitContext{Price: price, Now: time.Now().UTC()})
}

func TestStaticTPSLLong(t *testing.T) {
	pol := NewStaticTPSL(TakeProfitFirst)
	pos := newTestPosition(shared.Long, 100, shared.Float64(105), shared.Float64(95))

	tests := []struct {
		name       string
		price      float64
		wantClose  bool
		wantReason string
	}{
		{
			name:       "below sl",
			price:      94,
			wantClose:  true,
			wantReason: shared.CloseReasonSL,
		},
		{
			name:       "exactly sl is inclusive",
			price:      95,
			wantClose:  true,
			wantReason: shared.CloseReasonSL,
		},
		{
			name:      "between sl and tp",
			price:     100,
			wantClose: false,
		},
		{
			name:      "just under tp",
			price:     104.9,
			wantClose: false,
		},
		{
			name:       "exactly tp is inclusive",
			price:      105,
			wantClose:  true,
			wantReason: shared.CloseReasonTP,
		},
		{
			name:       "above tp",
			price:      106,
			wantClose:  true,
			wantReason: shared.CloseReasonTP,
		},
	}

	for _, test := range tests {
		actions := evalAt(pol, pos, test.price)
		if !test.wantClose {
			if len(actions) != 0 {
				t.Errorf("%s: expected no actions, got %d", test.name, len(actions))
			}
			continue
		}
		if len(actions) != 1 {
			t.Errorf("%s: expected one action, got %d", test.name, len(actions))
			continue
		}
		if actions[0].Type != shared.ClosePosition {
			t.Errorf("%s: expected close action, got %v", test.name, actions[0].Type)
		}
		if actions[0].CloseReason != test.wantReason {
			t.Errorf("%s: expected reason %v, got %v", test.name, test.wantReason, actions[0].CloseReason)
		}
	}
}

func TestStaticTPSLShort(t *testing.T) {
	pol := NewStaticTPSL(TakeProfitFirst)
	pos := newTestPosition(shared.Short, 100, shared.Float64(95), shared.Float64(105))

	tests := []struct {
		name       string
		price      float64
		wantClose  bool
		wantReason string
	}{
		{
			name:       "at or below tp",
			price:      95,
			wantClose:  true,
			wantReason: shared.CloseReasonTP,
		},
		{
			name:      "between targets",
			price:     100,
			wantClose: false,
		},
		{
			name:       "at or above sl",
			price:      105,
			wantClose:  true,
			wantReason: shared.CloseReasonSL,
		},
	}

	for _, test := range tests {
		actions := evalAt(pol, pos, test.price)
		if !test.wantClose {
			if len(actions) != 0 {
				t.Errorf("%s: expected no actions, got %d", test.name, len(actions))
			}
			continue
		}
		if len(actions) != 1 || actions[0].CloseReason != test.wantReason {
			t.Errorf("%s: expected close(%s), got %+v", test.name, test.wantReason, actions)
		}
	}
}

func TestStaticTPSLNoTargets(t *testing.T) {
	pol := NewStaticTPSL(TakeProfitFirst)
	pos := newTestPosition(shared.Long, 100, nil, nil)

	for _, price := range []float64{0, 50, 100, 1e9} {
		actions := evalAt(pol, pos, price)
		assert.Equal(t, 0, len(actions))
	}
}

func TestStaticTPSLUnknownSide(t *testing.T) {
	pol := NewStaticTPSL(TakeProfitFirst)
	pos := newTestPosition(shared.UnknownSide, 100, shared.Float64(105), shared.Float64(95))

	// An unknown side never triggers, for any price.
	for _, price := range []float64{90, 100, 110} {
		actions := evalAt(pol, pos, price)
		assert.Equal(t, 0, len(actions))
	}
}

func TestStaticTPSLIsStateless(t *testing.T) {
	// The policy re-evaluates independently per price: an already
	// triggerable price keeps signaling close until the position leaves
	// the open state.
	pol := NewStaticTPSL(TakeProfitFirst)
	pos := newTestPosition(shared.Long, 100, shared.Float64(105), shared.Float64(95))

	prices := []float64{94, 96, 100, 104.9, 105, 106}
	wantReasons := []string{shared.CloseReasonSL, "", "", "", shared.CloseReasonTP, shared.CloseReasonTP}

	for idx, price := range prices {
		actions := evalAt(pol, pos, price)
		if wantReasons[idx] == "" {
			assert.Equal(t, 0, len(actions))
			continue
		}
		assert.Equal(t, 1, len(actions))
		assert.Equal(t, wantReasons[idx], actions[0].CloseReason)
	}
}

func TestStaticTPSLTieBreak(t *testing.T) {
	// A degenerate position where one price satisfies both triggers.
	pos := newTestPosition(shared.Long, 100, shared.Float64(100), shared.Float64(100))

	tpFirst := NewStaticTPSL(TakeProfitFirst)
	actions := evalAt(tpFirst, pos, 100)
	assert.Equal(t, 1, len(actions))
	assert.Equal(t, shared.CloseReasonTP, actions[0].CloseReason)

	slFirst := NewStaticTPSL(StopLossFirst)
	actions = evalAt(slFirst, pos, 100)
	assert.Equal(t, 1, len(actions))
	assert.Equal(t, shared.CloseReasonSL, actions[0].CloseReason)
}

func TestStaticTPSLOnlyOneTarget(t *testing.T) {
	pol := NewStaticTPSL(TakeProfitFirst)

	// TP only.
	pos := newTestPosition(shared.Long, 100, shared.Float64(105), nil)
	actions := evalAt(pol, pos, 106)
	assert.Equal(t, 1, len(actions))
	assert.Equal(t, shared.CloseReasonTP, actions[0].CloseReason)
	actions = evalAt(pol, pos, 50)
	assert.Equal(t, 0, len(actions))

	// SL only.
	pos = newTestPosition(shared.Long, 100, nil, shared.Float64(95))
	actions = evalAt(pol, pos, 94)
	assert.Equal(t, 1, len(actions))
	assert.Equal(t, shared.CloseReasonSL, actions[0].CloseReason)
}

func TestNewPolicy(t *testing.T) {
	logger := testLogger()

	pol := New(StaticName, TakeProfitFirst, logger)
	assert.Equal(t, StaticName, pol.Name())

	// Unknown strategies fall back to the static policy.
	pol = New("trailing_v1", TakeProfitFirst, logger)
	assert.Equal(t, StaticName, pol.Name())
}
