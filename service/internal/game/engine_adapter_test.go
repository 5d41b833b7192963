package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikaze305/pablo-golf/engine"
)

func TestDecodeAction(t *testing.T) {
	cases := []struct {
		typ     string
		payload string
		want    engine.Action
	}{
		{ReqStartRound, "", engine.StartRound{}},
		{ReqEndRound, "", engine.EndRound{}},
		{ReqResetGame, "", engine.ResetGame{}},
		{ReqPlayerReady, "", engine.PlayerReady{PlayerID: "p1"}},
		{ReqPeekCard, `{"cardIndex":2}`, engine.PeekCard{PlayerID: "p1", CardIndex: 2}},
		{ReqDraw, `{"source":"discard"}`, engine.Draw{PlayerID: "p1", Source: engine.SourceDiscard}},
		{ReqReplace, `{"cardIndex":0,"card":{"rank":"K"}}`, engine.Replace{PlayerID: "p1", CardIndex: 0}},
		{ReqDiscard, "", engine.Discard{PlayerID: "p1"}},
		{ReqCallPablo, "", engine.CallPablo{PlayerID: "p1"}},
		{ReqPabloWindow, "", engine.PabloWindow{PlayerID: "p1"}},
		{ReqActivateTrick, "", engine.ActivateTrick{PlayerID: "p1"}},
		{ReqExecuteSwap, `{"sourceCardIndex":1,"targetPlayerId":"p2","targetCardIndex":3}`,
			engine.ExecuteSwap{PlayerID: "p1", SourceCardIndex: 1, TargetPlayerID: "p2", TargetCardIndex: 3}},
		{ReqExecuteSpy, `{"targetPlayerId":"p2","targetCardIndex":0}`,
			engine.ExecuteSpy{PlayerID: "p1", TargetPlayerID: "p2", TargetCardIndex: 0}},
		{ReqSkipTrick, "", engine.SkipTrick{PlayerID: "p1"}},
	}
	for _, tc := range cases {
		t.Run(tc.typ, func(t *testing.T) {
			assert.True(t, IsActionRequest(tc.typ))
			got, err := DecodeAction("p1", tc.typ, json.RawMessage(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeActionErrors(t *testing.T) {
	_, err := DecodeAction("p1", "turn:teleport", nil)
	assert.ErrorIs(t, err, ErrUnknownRequest)
	assert.False(t, IsActionRequest("turn:teleport"))

	_, err = DecodeAction("p1", ReqDraw, nil)
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeAction("p1", ReqDraw, json.RawMessage(`{"source":"deck"}`))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeAction("p1", ReqPeekCard, json.RawMessage(`{"cardIndex":"one"}`))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeAction("p1", ReqReplace, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, engine.ErrInvalidCardIndex)

	_, err = DecodeAction("p1", ReqExecuteSwap, json.RawMessage(`{"targetPlayerId":"p2"}`))
	assert.ErrorIs(t, err, engine.ErrInvalidCardIndex)
}

// TestDecodeActionIgnoresPayloadActor checks the actor always comes from
// the connection.
func TestDecodeActionIgnoresPayloadActor(t *testing.T) {
	got, err := DecodeAction("p1", ReqDiscard, json.RawMessage(`{"playerId":"p2"}`))
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Actor())
}
