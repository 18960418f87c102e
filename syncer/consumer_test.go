package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/petlog/healthrag/ai/mock"
	"github.com/petlog/healthrag/core"
	idxmock "github.com/petlog/healthrag/index/mock"
	"github.com/petlog/healthrag/storage"
	storagebadger "github.com/petlog/healthrag/storage/badger"
)

type consumerFixture struct {
	eventLog storage.EventLog
	offsets  storage.OffsetStore
	embedder *aimock.MockEmbedder
	index    *idxmock.MockIndex
	consumer *Consumer
}

func newConsumerFixture(t *testing.T, opts ...ConsumerOption) *consumerFixture {
	t.Helper()

	eventLog, offsets, backend, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = eventLog.Close()
		_ = backend.Close()
	})

	embedder := aimock.NewMockEmbedder()
	idx := idxmock.NewMockIndex()
	handler, err := NewHandler(embedder, idx, WithRetryDelay(time.Millisecond), WithMaxAttempts(2))
	require.NoError(t, err)

	consumer, err := NewConsumer(eventLog, offsets, handler, opts...)
	require.NoError(t, err)
	t.Cleanup(consumer.Release)

	return &consumerFixture{
		eventLog: eventLog,
		offsets:  offsets,
		embedder: embedder,
		index:    idx,
		consumer: consumer,
	}
}

func (f *consumerFixture) append(t *testing.T, eventType core.EventType, recordID int64, text string) {
	t.Helper()

	_, err := f.eventLog.Append(context.Background(), &core.ChangeEvent{
		EventID:   fmt.Sprintf("evt-%s-%d", eventType, recordID),
		Type:      eventType,
		RecordID:  recordID,
		OwnerID:   7,
		SubjectID: 3,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestDrainProcessesBatchAndCommits(t *testing.T) {
	f := newConsumerFixture(t)
	ctx := context.Background()

	f.append(t, core.EventCreated, 1, "눈곱이 계속 생겨요")
	f.append(t, core.EventCreated, 2, "산책 중에 절뚝거려요")

	processed, err := f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, f.index.Len())

	offset, found, err := f.offsets.Last(ctx, DefaultGroup)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Greater(t, offset, uint64(0))

	// Nothing new: drain is a no-op and the offset holds.
	processed, err = f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestDrainAppliesSameRecordInOrder(t *testing.T) {
	f := newConsumerFixture(t, WithWorkers(3))
	ctx := context.Background()

	f.append(t, core.EventCreated, 1, "처음 쓴 일기")
	f.append(t, core.EventUpdated, 1, "수정된 일기")

	processed, err := f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	require.Equal(t, 1, f.index.Len())
	assert.Contains(t, f.index.Get(1).Snippet, "수정된")
}

func TestDrainSkippedEventStillAdvancesOffset(t *testing.T) {
	f := newConsumerFixture(t)
	ctx := context.Background()

	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	f.append(t, core.EventCreated, 1, "임베딩이 실패할 일기")

	processed, err := f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, f.index.Len())

	stats := f.consumer.Stats()
	assert.Equal(t, uint64(1), stats.Skipped)

	// The skip is terminal: the offset advanced past the bad event.
	processed, err = f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestDrainDropsMalformedWithoutHaltingBatch(t *testing.T) {
	f := newConsumerFixture(t)
	ctx := context.Background()

	f.append(t, core.EventCreated, 1, "정상 일기")
	f.append(t, "DIARY_ARCHIVED", 2, "알 수 없는 타입")
	f.append(t, core.EventCreated, 3, "또 다른 정상 일기")

	processed, err := f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)
	assert.Equal(t, 2, f.index.Len())

	stats := f.consumer.Stats()
	assert.Equal(t, uint64(2), stats.Acked)
	assert.Equal(t, uint64(1), stats.Dropped)
}

func TestDrainDuplicateDeleteIsHarmless(t *testing.T) {
	f := newConsumerFixture(t)
	ctx := context.Background()

	f.append(t, core.EventCreated, 42, "삭제될 일기")
	_, err := f.consumer.Drain(ctx)
	require.NoError(t, err)

	f.append(t, core.EventDeleted, 42, "")
	f.append(t, core.EventDeleted, 42, "")

	processed, err := f.consumer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 0, f.index.Len())
	assert.Equal(t, uint64(3), f.consumer.Stats().Acked)
}

func TestDrainDoesNotCommitOnCancel(t *testing.T) {
	f := newConsumerFixture(t)

	f.append(t, core.EventCreated, 1, "첫 번째 일기")
	f.append(t, core.EventCreated, 2, "두 번째 일기")
	f.append(t, core.EventCreated, 3, "세 번째 일기")

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.consumer.Drain(canceled)
	assert.ErrorIs(t, err, context.Canceled)

	// Interrupted events are not skipped and the offset never moved.
	assert.Equal(t, uint64(0), f.consumer.Stats().Skipped)
	_, found, err := f.offsets.Last(context.Background(), DefaultGroup)
	require.NoError(t, err)
	assert.False(t, found)

	// Redelivery on the next drain picks up the whole batch.
	processed, err := f.consumer.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, processed)
	assert.Equal(t, 3, f.index.Len())
	assert.Equal(t, uint64(3), f.consumer.Stats().Acked)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newConsumerFixture(t, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.consumer.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestNewConsumerValidation(t *testing.T) {
	eventLog, offsets, backend, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer eventLog.Close()

	handler, err := NewHandler(aimock.NewMockEmbedder(), idxmock.NewMockIndex())
	require.NoError(t, err)

	_, err = NewConsumer(nil, offsets, handler)
	assert.ErrorIs(t, err, ErrEventLogRequired)

	_, err = NewConsumer(eventLog, nil, handler)
	assert.ErrorIs(t, err, ErrOffsetStoreRequired)

	_, err = NewConsumer(eventLog, offsets, nil)
	assert.ErrorIs(t, err, ErrHandlerRequired)
}
