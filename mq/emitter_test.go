package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEmitPublishesJSON(t *testing.T) {
	db, mock := redismock.NewClientMock()
	msg := Message{
		Type:          TicketIssued,
		TicketID:      "t1",
		EventID:       "e1",
		WalletAddress: "0xabc",
		TierName:      "GA",
		At:            time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	mock.ExpectPublish(TicketChannel, data).SetVal(1)

	require.NoError(t, NewRedis(db).Emit(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisEmitWrapsError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	msg := Message{Type: TicketCheckedIn, TicketID: "t1"}
	data, _ := json.Marshal(msg)

	mock.ExpectPublish(TicketChannel, data).SetErr(errors.New("connection refused"))

	err := NewRedis(db).Emit(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mq.Redis.Emit")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Emit(context.Background(), Message{}))
}
