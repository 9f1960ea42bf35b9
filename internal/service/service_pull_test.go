// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/mock"
	"github.com/MKhiriev/go-workout-sync/internal/remote"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestPull — хелпер для создания pullSynchronizer с моками и настоящим
// LWW-резолвером.
func newTestPull(
	t *testing.T,
	ctrl *gomock.Controller,
) (
	*pullSynchronizer,
	*mock.MockEntityRepository,
	*mock.MockOutboxRepository,
	*mock.MockConflictRepository,
	*mock.MockClient,
) {
	t.Helper()
	mockEntities := mock.NewMockEntityRepository(ctrl)
	mockOutbox := mock.NewMockOutboxRepository(ctrl)
	mockConflicts := mock.NewMockConflictRepository(ctrl)
	mockClient := mock.NewMockClient(ctrl)

	svc := NewPullSynchronizer(
		mockEntities, mockOutbox, mockConflicts, mockClient,
		NewLastWriterWinsResolver(), logger.NewLogger("test"),
	).(*pullSynchronizer)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	return svc, mockEntities, mockOutbox, mockConflicts, mockClient
}

func remoteTemplate(id, name string, modified time.Time) models.RemoteRecord {
	return models.RemoteRecord{
		RecordName:       id,
		RecordType:       "template",
		Fields:           map[string]any{"id": id, "name": name},
		ModificationDate: modified,
	}
}

// ── Pull: инкрементальная выборка ────────────────────────────────────────────

func TestPull_NoChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	mockClient.EXPECT().FetchChanges(ctx, "cursor-1").
		Return(models.ChangeSet{NewCursor: "cursor-2"}, nil)

	result, err := svc.Pull(ctx, "cursor-1")
	require.NoError(t, err)
	assert.Zero(t, result.Pulled)
	assert.Zero(t, result.Conflicts)
	assert.Equal(t, "cursor-2", result.NewCursor)
}

func TestPull_FetchChangesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	mockClient.EXPECT().FetchChanges(ctx, "cursor-1").
		Return(models.ChangeSet{}, remote.ErrUnavailable)

	result, err := svc.Pull(ctx, "cursor-1")
	require.ErrorIs(t, err, remote.ErrUnavailable)
	assert.Empty(t, result.NewCursor, "курсор не должен продвигаться при ошибке")
}

func TestPull_NewRecord_InsertedLocally(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()
	modified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	mockClient.EXPECT().FetchChanges(ctx, "cursor-1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{remoteTemplate("t1", "Leg Day", modified)},
		NewCursor: "cursor-2",
	}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").
		Return(models.Entity{}, store.ErrEntityNotFound)
	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), false).DoAndReturn(
		func(_ context.Context, entity models.Entity, _ bool) error {
			assert.Equal(t, "t1", entity.EntityID)
			assert.JSONEq(t, `{"id":"t1","name":"Leg Day"}`, string(entity.Payload))
			require.NotNil(t, entity.RemoteModifiedAt)
			assert.True(t, entity.RemoteModifiedAt.Equal(modified))
			return nil
		},
	)

	result, err := svc.Pull(ctx, "cursor-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pulled)
	assert.Zero(t, result.Conflicts)
	assert.Equal(t, "cursor-2", result.NewCursor)
}

func TestPull_NoPendingEdits_RemoteWinsWithoutConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, mockOutbox, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()
	modified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{remoteTemplate("t1", "Updated", modified)},
		NewCursor: "c2",
	}, nil)

	createdAt := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").Return(models.Entity{
		EntityType: models.EntityTypeTemplate,
		EntityID:   "t1",
		Payload:    []byte(`{"id":"t1","name":"Old"}`),
		CreatedAt:  createdAt,
	}, nil)
	mockOutbox.EXPECT().PendingForEntity(ctx, models.EntityTypeTemplate, "t1").Return(nil, nil)

	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), false).DoAndReturn(
		func(_ context.Context, entity models.Entity, _ bool) error {
			// локальный CreatedAt сохраняется при перезаписи
			assert.True(t, entity.CreatedAt.Equal(createdAt))
			return nil
		},
	)

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pulled)
	assert.Zero(t, result.Conflicts, "без локальных правок конфликта нет")
}

// ── Pull: разрешение конфликтов ──────────────────────────────────────────────

func TestPull_Conflict_LocalNewer_LocalKept(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, mockOutbox, mockConflicts, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	remoteModified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	localEdit := remoteModified.Add(time.Hour) // локальная правка новее

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{remoteTemplate("t1", "Remote", remoteModified)},
		NewCursor: "c2",
	}, nil)

	localPayload := []byte(`{"id":"t1","name":"Local"}`)
	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").Return(models.Entity{
		EntityType: models.EntityTypeTemplate,
		EntityID:   "t1",
		Payload:    localPayload,
	}, nil)
	mockOutbox.EXPECT().PendingForEntity(ctx, models.EntityTypeTemplate, "t1").Return([]models.OutboxItem{
		{ID: "q1", EntityType: models.EntityTypeTemplate, EntityID: "t1", Operation: models.OperationUpdate, CreatedAt: localEdit},
	}, nil)

	mockConflicts.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, conflict models.SyncConflict) error {
			assert.Equal(t, models.ResolutionLocal, conflict.Resolution)
			assert.Equal(t, localPayload, conflict.LocalSnapshot)
			assert.JSONEq(t, `{"id":"t1","name":"Remote"}`, string(conflict.RemoteSnapshot))
			require.NotNil(t, conflict.ResolvedAt)
			return nil
		},
	)
	// локальное состояние не трогаем, очередь не трогаем: ApplyRemote и
	// RemoveForEntity не ожидаются — элемент q1 будет запушен следующим push

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)
	assert.Zero(t, result.Pulled)
	assert.Equal(t, "c2", result.NewCursor)
}

func TestPull_Conflict_RemoteNewer_RemoteAppliedAndQueueDiscarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, mockOutbox, mockConflicts, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	remoteModified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	localEdit := remoteModified.Add(-time.Hour) // удалённая правка новее

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{remoteTemplate("t1", "Remote", remoteModified)},
		NewCursor: "c2",
	}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").Return(models.Entity{
		EntityType: models.EntityTypeTemplate,
		EntityID:   "t1",
		Payload:    []byte(`{"id":"t1","name":"Local"}`),
	}, nil)
	mockOutbox.EXPECT().PendingForEntity(ctx, models.EntityTypeTemplate, "t1").Return([]models.OutboxItem{
		{ID: "q1", CreatedAt: localEdit},
	}, nil)

	mockConflicts.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, conflict models.SyncConflict) error {
			assert.Equal(t, models.ResolutionRemote, conflict.Resolution)
			return nil
		},
	)
	// remote победил: перезаписываем локальное состояние и сбрасываем
	// устаревшие элементы очереди той же транзакцией
	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), true).Return(nil)

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Pulled)
}

func TestPull_Conflict_EqualTimestamps_RemoteWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, mockOutbox, mockConflicts, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	modified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{remoteTemplate("t1", "Remote", modified)},
		NewCursor: "c2",
	}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").Return(models.Entity{
		EntityType: models.EntityTypeTemplate,
		EntityID:   "t1",
		Payload:    []byte(`{"id":"t1","name":"Local"}`),
	}, nil)
	// метка локальной правки в точности равна удалённой — ничья уходит серверу
	mockOutbox.EXPECT().PendingForEntity(ctx, models.EntityTypeTemplate, "t1").Return([]models.OutboxItem{
		{ID: "q1", CreatedAt: modified},
	}, nil)

	mockConflicts.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, conflict models.SyncConflict) error {
			assert.Equal(t, models.ResolutionRemote, conflict.Resolution)
			return nil
		},
	)
	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), true).Return(nil)

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)
}

// ── Pull: повреждённые записи и tombstone ────────────────────────────────────

func TestPull_MalformedRecord_SkippedNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()
	modified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	broken := models.RemoteRecord{
		RecordName:       "x1",
		RecordType:       "unknown-type",
		Fields:           map[string]any{"foo": "bar"},
		ModificationDate: modified,
	}

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{broken, remoteTemplate("t1", "Good", modified)},
		NewCursor: "c2",
	}, nil)

	// повреждённая запись пропускается, валидная применяется
	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").
		Return(models.Entity{}, store.ErrEntityNotFound)
	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), false).Return(nil)

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Pulled)
	assert.Equal(t, "c2", result.NewCursor, "пропуск не блокирует продвижение курсора")
}

func TestPull_RemoteTombstone_DeletesLocally(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		DeletedIDs: []string{"t1"},
		NewCursor:  "c2",
	}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").
		Return(models.Entity{EntityType: models.EntityTypeTemplate, EntityID: "t1"}, nil)
	// tombstone терминален: строка и её очередь удаляются вместе
	mockEntities.EXPECT().ApplyRemoteDelete(ctx, models.EntityTypeTemplate, "t1").Return(nil)

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pulled)
}

func TestPull_RemoteTombstone_UnknownLocally_Noop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		DeletedIDs: []string{"ghost"},
		NewCursor:  "c2",
	}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "ghost").
		Return(models.Entity{}, store.ErrEntityNotFound)
	mockEntities.EXPECT().Get(ctx, models.EntityTypeSession, "ghost").
		Return(models.Entity{}, store.ErrEntityNotFound)

	result, err := svc.Pull(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, result.Pulled)
}

func TestPull_ApplyError_AbortsBeforeCursorAdvance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()
	modified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	mockClient.EXPECT().FetchChanges(ctx, "c1").Return(models.ChangeSet{
		Changed:   []models.RemoteRecord{remoteTemplate("t1", "Good", modified)},
		NewCursor: "c2",
	}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").
		Return(models.Entity{}, store.ErrEntityNotFound)
	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), false).
		Return(errors.New("db locked"))

	result, err := svc.Pull(ctx, "c1")
	require.Error(t, err)
	assert.Empty(t, result.NewCursor, "курсор не продвигается мимо непримёненной записи")
}

// ── Pull: полный ресинк без курсора ──────────────────────────────────────────

func TestPull_EmptyCursor_FullResyncThenChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockEntities, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()
	modified := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	// страница 1 по шаблонам (HasMore=true), страница 2 пустая
	mockClient.EXPECT().QueryRecords(ctx, "template", remote.RecordQuery{Limit: fullResyncPageSize}).
		Return(models.QueryResult{
			Records: []models.RemoteRecord{remoteTemplate("t1", "A", modified)},
			HasMore: true,
		}, nil)
	mockClient.EXPECT().QueryRecords(ctx, "template", remote.RecordQuery{Limit: fullResyncPageSize, Offset: 1}).
		Return(models.QueryResult{}, nil)
	// по сессиям пусто
	mockClient.EXPECT().QueryRecords(ctx, "session", remote.RecordQuery{Limit: fullResyncPageSize}).
		Return(models.QueryResult{}, nil)

	mockEntities.EXPECT().Get(ctx, models.EntityTypeTemplate, "t1").
		Return(models.Entity{}, store.ErrEntityNotFound)
	mockEntities.EXPECT().ApplyRemote(ctx, gomock.Any(), false).Return(nil)

	// после обхода корпуса запрашиваем изменения для стартового курсора
	mockClient.EXPECT().FetchChanges(ctx, "").
		Return(models.ChangeSet{NewCursor: "c1"}, nil)

	result, err := svc.Pull(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pulled)
	assert.Equal(t, "c1", result.NewCursor)
}

func TestPull_FullResync_QueryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	mockClient.EXPECT().QueryRecords(ctx, "template", gomock.Any()).
		Return(models.QueryResult{}, remote.ErrUnavailable)

	result, err := svc.Pull(ctx, "")
	require.ErrorIs(t, err, remote.ErrUnavailable)
	assert.Empty(t, result.NewCursor)
}

func TestPull_FullResync_EmptyPageWithHasMore_Terminates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, _, mockClient := newTestPull(t, ctrl)
	ctx := context.Background()

	// сервер утверждает HasMore, но страница пустая: offset не может
	// продвинуться, обход обязан остановиться вместо вечного цикла
	mockClient.EXPECT().QueryRecords(ctx, "template", remote.RecordQuery{Limit: fullResyncPageSize}).
		Return(models.QueryResult{HasMore: true}, nil).
		Times(1)
	mockClient.EXPECT().QueryRecords(ctx, "session", remote.RecordQuery{Limit: fullResyncPageSize}).
		Return(models.QueryResult{HasMore: true}, nil).
		Times(1)

	mockClient.EXPECT().FetchChanges(ctx, "").
		Return(models.ChangeSet{NewCursor: "c1"}, nil)

	result, err := svc.Pull(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, result.Pulled)
	assert.Equal(t, "c1", result.NewCursor)
}

func TestPull_FullResync_ContextCancelled_Aborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, _, _ := newTestPull(t, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// ни одного сетевого вызова после отмены контекста
	_, err := svc.Pull(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}
